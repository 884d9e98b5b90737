package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "log_level: debug\nlog_format: json\noutput_format: pdb\njobs: 4\nserver_address: 0.0.0.0:9000\ndata_dir: /srv/structures\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envPespathConfig, path)

	cfg := LoadConfig()
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.OutputFormat != "pdb" {
		t.Fatalf("unexpected output settings: %+v", cfg)
	}
	if cfg.Jobs == nil || *cfg.Jobs != 4 {
		t.Fatalf("unexpected jobs: %v", cfg.Jobs)
	}
	if cfg.ServerAddress != "0.0.0.0:9000" || cfg.DataDir != "/srv/structures" {
		t.Fatalf("unexpected server settings: %+v", cfg)
	}
}

func TestLoadConfigMissingOrInvalid(t *testing.T) {
	t.Setenv(envPespathConfig, filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg := LoadConfig(); cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("jobs: [\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envPespathConfig, path)
	if cfg := LoadConfig(); cfg.Jobs != nil {
		t.Fatalf("expected zero config for invalid yaml, got %+v", cfg)
	}
}

func TestRenderSummary(t *testing.T) {
	e := -1.25
	a, err := atoms.New([]string{"O", "H", "H"}, []r3.Vec{{}, {X: 1}, {Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	a.Energy = &e
	frames := []*atoms.Atoms{a, a.Copy(), a.Copy()}

	out := renderSummary("path.xyz", frames, false)
	for _, want := range []string{"path.xyz", "frames", "3", "H2O", "-1.25", "frame 0", "frame 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "frame 1") {
		t.Fatalf("summary should skip middle frames:\n%s", out)
	}
	if all := renderSummary("path.xyz", frames, true); !strings.Contains(all, "frame 1") {
		t.Fatalf("--all should list every frame:\n%s", all)
	}
}
