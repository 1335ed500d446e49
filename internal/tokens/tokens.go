// Package tokens provides token counting for prompt budget checks across
// the models the pipeline talks to.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens in text for a model.
type Counter interface {
	SupportsModel(model string) bool
	CountText(model, text string) (int, error)
}

// Registry picks the right counter for a model, falling back to the
// estimator for models without a real tokenizer.
type Registry struct {
	counters []Counter
	fallback Counter
}

// NewRegistry creates a registry with the tiktoken counter registered and
// the estimator as fallback.
func NewRegistry() *Registry {
	r := &Registry{fallback: NewEstimator()}
	r.Register(NewTiktokenCounter())
	return r
}

// Register adds a counter to the registry.
func (r *Registry) Register(counter Counter) {
	r.counters = append(r.counters, counter)
}

// CountText counts tokens using the first counter that supports the model.
func (r *Registry) CountText(model, text string) (int, error) {
	for _, c := range r.counters {
		if c.SupportsModel(model) {
			n, err := c.CountText(model, text)
			if err == nil {
				return n, nil
			}
			// Broken tokenizer falls through to the estimator.
		}
	}
	return r.fallback.CountText(model, text)
}

// TiktokenCounter counts tokens for OpenAI-style models using tiktoken.
type TiktokenCounter struct {
	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex
}

// NewTiktokenCounter creates a tiktoken-backed counter.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// SupportsModel returns true for GPT and o-series models.
func (c *TiktokenCounter) SupportsModel(model string) bool {
	model = strings.ToLower(model)
	for _, prefix := range []string{"gpt-", "o1", "o3", "o4", "text-embedding", "text-davinci"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// CountText returns the token count of text under the model's encoding.
func (c *TiktokenCounter) CountText(model, text string) (int, error) {
	codec, err := c.getCodec(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (c *TiktokenCounter) getCodec(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, nil
	}

	encoding := modelToEncoding(model)

	c.cacheMu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()

	return codec, nil
}

func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	default:
		return tokenizer.Cl100kBase
	}
}

// Estimator approximates token counts as chars/4, the usual rule of thumb
// for English text. Used for models without a published tokenizer (Groq's
// Llama models included).
type Estimator struct{}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// SupportsModel returns true; the estimator is the universal fallback.
func (e *Estimator) SupportsModel(model string) bool {
	return true
}

// CountText estimates the token count of text.
func (e *Estimator) CountText(model, text string) (int, error) {
	if len(text) == 0 {
		return 0, nil
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n, nil
}

// contextWindows maps model prefixes to context window sizes.
var contextWindows = []struct {
	prefix string
	window int
}{
	{"gpt-5", 400000},
	{"gpt-4.1", 1047576},
	{"gpt-4o", 128000},
	{"gpt-4-turbo", 128000},
	{"gpt-4", 8192},
	{"gpt-3.5", 16385},
	{"o1", 200000},
	{"o3", 200000},
	{"llama-3.1", 131072},
	{"llama-3.3", 131072},
	{"llama-3", 8192},
	{"mixtral", 32768},
}

// DefaultContextWindow is assumed for unknown models.
const DefaultContextWindow = 128000

// ContextWindow returns the context window size for a model.
func ContextWindow(model string) int {
	model = strings.ToLower(model)
	for _, cw := range contextWindows {
		if strings.HasPrefix(model, cw.prefix) {
			return cw.window
		}
	}
	return DefaultContextWindow
}
