package tokens

import "testing"

func TestEstimator_CountText(t *testing.T) {
	e := NewEstimator()

	n, err := e.CountText("llama-3.1-8b-instant", "hello world, this is a prompt")
	if err != nil {
		t.Fatalf("CountText() error = %v", err)
	}
	if n <= 0 {
		t.Errorf("expected positive estimate, got %d", n)
	}

	if n, _ := e.CountText("any", ""); n != 0 {
		t.Errorf("empty text should estimate 0, got %d", n)
	}
	if n, _ := e.CountText("any", "ab"); n != 1 {
		t.Errorf("short text should estimate at least 1, got %d", n)
	}
}

func TestTiktokenCounter(t *testing.T) {
	c := NewTiktokenCounter()

	if !c.SupportsModel("gpt-4o") || !c.SupportsModel("o3-mini") {
		t.Error("expected gpt/o-series support")
	}
	if c.SupportsModel("llama-3.1-8b-instant") {
		t.Error("llama models must not claim tiktoken support")
	}

	n, err := c.CountText("gpt-4o", "hello world")
	if err != nil {
		t.Fatalf("CountText() error = %v", err)
	}
	if n == 0 {
		t.Error("expected non-zero token count")
	}
}

func TestRegistry_CountText(t *testing.T) {
	r := NewRegistry()

	// Unknown model falls back to the estimator rather than erroring.
	n, err := r.CountText("llama-3.1-8b-instant", "some prompt text here")
	if err != nil {
		t.Fatalf("CountText() error = %v", err)
	}
	if n <= 0 {
		t.Errorf("expected positive count, got %d", n)
	}
}

// fixedCounter claims one model and returns a constant count.
type fixedCounter struct {
	model string
	n     int
}

func (c fixedCounter) SupportsModel(model string) bool           { return model == c.model }
func (c fixedCounter) CountText(model, text string) (int, error) { return c.n, nil }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(fixedCounter{model: "llama-3.1-8b-instant", n: 42})

	// The registered counter wins over the chars/4 fallback for its model.
	n, err := r.CountText("llama-3.1-8b-instant", "some prompt text here")
	if err != nil {
		t.Fatalf("CountText() error = %v", err)
	}
	if n != 42 {
		t.Errorf("CountText() = %d, want 42 from the registered counter", n)
	}

	// Other models still fall through.
	if n, _ := r.CountText("mixtral-8x7b", "ab"); n == 42 {
		t.Error("registered counter leaked to an unsupported model")
	}
}

func TestContextWindow(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"gpt-4o-mini", 128000},
		{"gpt-4", 8192},
		{"llama-3.1-8b-instant", 131072},
		{"unknown-model", DefaultContextWindow},
	}
	for _, tt := range tests {
		if got := ContextWindow(tt.model); got != tt.want {
			t.Errorf("ContextWindow(%q) = %d, want %d", tt.model, got, tt.want)
		}
	}
}
