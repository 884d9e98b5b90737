package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/pespath/internal/structio"
)

func TestResolveJobPaths(t *testing.T) {
	t.Run("files pass through", func(t *testing.T) {
		dir := t.TempDir()
		job := filepath.Join(dir, "job.yaml")
		if err := os.WriteFile(job, []byte("x"), 0o644); err != nil {
			t.Fatalf("write job: %v", err)
		}
		got, err := resolveJobPaths([]string{job})
		if err != nil {
			t.Fatalf("resolveJobPaths returned error: %v", err)
		}
		if len(got) != 1 || got[0] != job {
			t.Fatalf("unexpected paths: %v", got)
		}
	})

	t.Run("directory expands sorted", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"b.yml", "a.yaml", "notes.txt"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
				t.Fatalf("write %s: %v", name, err)
			}
		}
		got, err := resolveJobPaths([]string{dir})
		if err != nil {
			t.Fatalf("resolveJobPaths returned error: %v", err)
		}
		want := []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}
		if len(got) != len(want) {
			t.Fatalf("unexpected job count: got %d want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("unexpected ordering at %d: got %q want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("env dir used without args", func(t *testing.T) {
		dir := t.TempDir()
		job := filepath.Join(dir, "only.yaml")
		if err := os.WriteFile(job, []byte("x"), 0o644); err != nil {
			t.Fatalf("write job: %v", err)
		}
		t.Setenv(envPespathJobsDir, dir)
		got, err := resolveJobPaths(nil)
		if err != nil {
			t.Fatalf("resolveJobPaths returned error: %v", err)
		}
		if len(got) != 1 || got[0] != job {
			t.Fatalf("unexpected paths: %v", got)
		}
	})

	t.Run("no args and no env", func(t *testing.T) {
		t.Setenv(envPespathJobsDir, "")
		if _, err := resolveJobPaths(nil); err == nil {
			t.Fatalf("expected error without job arguments")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		if _, err := resolveJobPaths([]string{t.TempDir()}); err == nil {
			t.Fatalf("expected error for directory without jobs")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := resolveJobPaths([]string{filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
			t.Fatalf("expected error for missing job")
		}
	})
}

func TestWithFormat(t *testing.T) {
	if got := withFormat("/tmp/res.xyz", structio.FormatJSON); got != "/tmp/res.json" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := withFormat("res", structio.FormatPDB); got != "res.pdb" {
		t.Fatalf("unexpected path: %q", got)
	}
}

func TestLoadJobOverrides(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(job, []byte("points:\n  - file: a.xyz\n"), 0o644); err != nil {
		t.Fatalf("write job: %v", err)
	}

	got, err := loadJob(job, interpOptions{format: "pdb", noFlat: true})
	if err != nil {
		t.Fatalf("loadJob returned error: %v", err)
	}
	if got.Flatten {
		t.Fatalf("expected flatten to be disabled")
	}
	if want := filepath.Join(dir, "job_path.pdb"); got.Output.Path != want || got.Output.Format != "pdb" {
		t.Fatalf("unexpected output: %+v", got.Output)
	}

	out := filepath.Join(dir, "custom.xyz")
	got, err = loadJob(job, interpOptions{output: out, format: "json"})
	if err != nil {
		t.Fatalf("loadJob returned error: %v", err)
	}
	if got.Output.Path != out || got.Output.Format != "json" {
		t.Fatalf("explicit output should keep its name: %+v", got.Output)
	}

	if _, err := loadJob(job, interpOptions{format: "cif"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
