// Package export writes a completed run's rendered assets to disk.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/actionplanner/launchkit/internal/domain"
)

// ManifestFile is one exported file.
type ManifestFile struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
}

// Manifest describes one export: where the files went and what they are.
type Manifest struct {
	RunID      string         `json:"run_id"`
	Workflow   string         `json:"workflow"`
	Dir        string         `json:"dir"`
	Files      []ManifestFile `json:"files"`
	ExportedAt time.Time      `json:"exported_at"`
}

// Exporter serializes rendered assets into per-run directories under a base
// export directory.
type Exporter struct {
	baseDir string
	logger  *slog.Logger
}

// New creates an exporter rooted at baseDir.
func New(baseDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{baseDir: baseDir, logger: logger}
}

// Export renders the run's assets and writes them under baseDir/<run id>.
// Asset names may contain subdirectories (".github/workflows/ci.yml") but
// never escape the run directory. A manifest.json is written alongside.
func (e *Exporter) Export(run *domain.PipelineRun, renderer domain.AssetRenderer) (*Manifest, error) {
	if run.Status != domain.RunCompleted {
		return nil, fmt.Errorf("run %s is %s; only completed runs export", run.ID, run.Status)
	}

	assets, err := renderer.RenderAssets(run)
	if err != nil {
		return nil, fmt.Errorf("render assets: %w", err)
	}

	dir := filepath.Join(e.baseDir, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	manifest := &Manifest{
		RunID:      run.ID,
		Workflow:   run.Workflow,
		Dir:        dir,
		ExportedAt: time.Now(),
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path, err := safeJoin(dir, name)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dir for %s: %w", name, err)
		}
		content := assets[name]
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		manifest.Files = append(manifest.Files, ManifestFile{Name: name, Bytes: len(content)})
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	e.logger.Info("run exported",
		"run_id", run.ID, "workflow", run.Workflow, "dir", dir, "files", len(manifest.Files))
	return manifest, nil
}

// safeJoin joins name under dir, rejecting absolute names and traversal.
func safeJoin(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset name %q escapes export dir", name)
	}
	return filepath.Join(dir, clean), nil
}
