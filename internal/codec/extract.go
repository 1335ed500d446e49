// Package codec extracts structured payloads from model output. Models
// asked for strict JSON still wrap it in code fences, prose or half-escaped
// text often enough that every caller goes through these helpers.
package codec

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
)

// ErrNoJSON is returned when no parseable JSON object is found in the text.
var ErrNoJSON = errors.New("codec: no JSON object found in model output")

var (
	fenceBlockRe  = regexp.MustCompile("(?is)```(?:json|javascript|js|html|css|md|markdown)?\\s*([\\s\\S]*?)\\s*```")
	jsonFenceRe   = regexp.MustCompile("(?is)```json\\s*([\\s\\S]*?)\\s*```")
	inlineTicksRe = regexp.MustCompile("`([^`]*)`")
)

// CleanMarkdown removes code fences and inline backticks from model output,
// keeping the inner text.
func CleanMarkdown(content string) string {
	content = fenceBlockRe.ReplaceAllString(content, "$1")
	content = inlineTicksRe.ReplaceAllString(content, "$1")
	return strings.TrimSpace(content)
}

// ExtractJSONObject finds the JSON object in model output, best effort:
//
//  1. fenced ```json blocks
//  2. every balanced {...} region, longest first
//  3. first-to-last brace as a final fallback
//
// The returned message is re-marshaled, so it is always compact valid JSON.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoJSON
	}

	for _, block := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		if raw, ok := tryParseObject(block[1]); ok {
			return raw, nil
		}
	}

	for _, cand := range balancedCandidates(text) {
		if raw, ok := tryParseObject(cand); ok {
			return raw, nil
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		if raw, ok := tryParseObject(text[first : last+1]); ok {
			return raw, nil
		}
	}

	// One more attempt after stripping markdown decoration.
	if cleaned := CleanMarkdown(text); cleaned != text {
		return ExtractJSONObject(cleaned)
	}

	return nil, ErrNoJSON
}

// ExtractJSONInto extracts the JSON object from text and unmarshals it into out.
func ExtractJSONInto(text string, out any) error {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func tryParseObject(s string) (json.RawMessage, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// balancedCandidates returns every balanced {...} substring, longest first,
// since the longest region is most likely the full object.
func balancedCandidates(text string) []string {
	var starts []int
	var cands []string
	for i, ch := range text {
		switch ch {
		case '{':
			starts = append(starts, i)
		case '}':
			if len(starts) > 0 {
				start := starts[len(starts)-1]
				starts = starts[:len(starts)-1]
				cands = append(cands, text[start:i+1])
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool { return len(cands[i]) > len(cands[j]) })
	return cands
}
