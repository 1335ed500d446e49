package workflow

import (
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(Deps{})

	for _, name := range []string{"launch", "workshop", "letter"} {
		p, err := r.Get(name)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", name, err)
		}
		if p.Name != name {
			t.Errorf("pipeline name = %s, want %s", p.Name, name)
		}
		if len(p.Stages) == 0 || p.Renderer == nil {
			t.Errorf("workflow %s is missing stages or renderer", name)
		}
	}

	if _, err := r.Get("nonsense"); err == nil {
		t.Error("expected error for unknown workflow")
	}
}

func TestRegistry_Definitions(t *testing.T) {
	defs := NewRegistry(Deps{}).Definitions()
	if len(defs) != 3 {
		t.Fatalf("len(defs) = %d, want 3", len(defs))
	}
	// Sorted by name.
	if defs[0].Name != "launch" || defs[1].Name != "letter" || defs[2].Name != "workshop" {
		t.Errorf("order = %s, %s, %s", defs[0].Name, defs[1].Name, defs[2].Name)
	}
	for _, d := range defs {
		if d.Description == "" || len(d.Stages) == 0 || len(d.Params) == 0 {
			t.Errorf("incomplete definition: %+v", d)
		}
	}
}
