package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/actionplanner/launchkit/internal/domain"
)

type mapRenderer map[string]string

func (m mapRenderer) RenderAssets(run *domain.PipelineRun) (map[string]string, error) {
	return m, nil
}

func completedRun() *domain.PipelineRun {
	return &domain.PipelineRun{
		ID:       "run-1",
		Workflow: "launch",
		Status:   domain.RunCompleted,
	}
}

func TestExporter_Export(t *testing.T) {
	base := t.TempDir()
	e := New(base, nil)

	assets := mapRenderer{
		"index.html":               "<!doctype html>",
		"README.md":                "# readme",
		".github/workflows/ci.yml": "name: CI",
	}

	m, err := e.Export(completedRun(), assets)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if m.RunID != "run-1" || m.Workflow != "launch" {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Files) != 3 {
		t.Fatalf("len(files) = %d, want 3", len(m.Files))
	}
	// Manifest is sorted by name.
	if m.Files[0].Name != ".github/workflows/ci.yml" {
		t.Errorf("files[0] = %s", m.Files[0].Name)
	}

	got, err := os.ReadFile(filepath.Join(base, "run-1", "index.html"))
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if string(got) != "<!doctype html>" {
		t.Errorf("content = %q", got)
	}

	// Nested asset names land in subdirectories.
	if _, err := os.Stat(filepath.Join(base, "run-1", ".github", "workflows", "ci.yml")); err != nil {
		t.Errorf("nested asset missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "run-1", "manifest.json")); err != nil {
		t.Errorf("manifest.json missing: %v", err)
	}
}

func TestExporter_RejectsIncompleteRun(t *testing.T) {
	e := New(t.TempDir(), nil)

	run := completedRun()
	run.Status = domain.RunFailed

	if _, err := e.Export(run, mapRenderer{}); err == nil {
		t.Error("expected error for failed run")
	}
}

func TestExporter_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	e := New(base, nil)

	_, err := e.Export(completedRun(), mapRenderer{"../outside.txt": "nope"})
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Fatalf("err = %v, want traversal rejection", err)
	}
	if _, statErr := os.Stat(filepath.Join(base, "outside.txt")); statErr == nil {
		t.Error("file escaped the export dir")
	}
}
