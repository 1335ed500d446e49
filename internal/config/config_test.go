package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	origPort := os.Getenv("LAUNCHKIT_SERVER__PORT")
	defer func() {
		if origPort != "" {
			os.Setenv("LAUNCHKIT_SERVER__PORT", origPort)
		} else {
			os.Unsetenv("LAUNCHKIT_SERVER__PORT")
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("LAUNCHKIT_SERVER__PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Storage.Type != "memory" {
			t.Errorf("Load() storage type = %v, want memory", cfg.Storage.Type)
		}
		if cfg.Export.Dir != "./exports" {
			t.Errorf("Load() export dir = %v, want ./exports", cfg.Export.Dir)
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		os.Setenv("LAUNCHKIT_SERVER__PORT", "9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})
}

func TestLoadFile(t *testing.T) {
	os.Setenv("TEST_GROQ_KEY", "gsk-test")
	defer os.Unsetenv("TEST_GROQ_KEY")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7070
storage:
  type: sqlite
  sqlite:
    path: ./data/runs.db
providers:
  - name: groq
    type: groq
    api_key: ${TEST_GROQ_KEY}
workflows:
  launch:
    stages:
      plan:
        model: llama-3.3-70b-versatile
        temperature: 0.1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %v, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.SQLite.Path != "./data/runs.db" {
		t.Errorf("sqlite path = %v", cfg.Storage.SQLite.Path)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].APIKey != "gsk-test" {
		t.Errorf("provider api key not substituted: %+v", cfg.Providers)
	}

	st := cfg.StageOverride("launch", "plan")
	if st.Model != "llama-3.3-70b-versatile" || st.Temperature != 0.1 {
		t.Errorf("stage override = %+v", st)
	}
	if got := cfg.StageOverride("launch", "research"); got != (StageConfig{}) {
		t.Errorf("expected zero override, got %+v", got)
	}
	if got := cfg.StageOverride("missing", "plan"); got != (StageConfig{}) {
		t.Errorf("expected zero override for unknown workflow, got %+v", got)
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple substitution", input: "${TEST_VAR}", want: "test-value"},
		{name: "substitution in string", input: "prefix-${TEST_VAR}-suffix", want: "prefix-test-value-suffix"},
		{name: "no substitution", input: "plain-string", want: "plain-string"},
		{name: "undefined var", input: "${UNDEFINED_VAR}", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
