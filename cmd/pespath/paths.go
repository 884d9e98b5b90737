package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samcharles93/pespath/internal/structio"
)

const (
	envPespathConfig  = "PESPATH_CONFIG"
	envPespathJobsDir = "PESPATH_JOBS_DIR"
)

// resolveJobPaths expands the interp arguments into job files. Directories
// contribute every job file they hold; with no arguments the directory named
// by PESPATH_JOBS_DIR is used.
func resolveJobPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		dir := strings.TrimSpace(os.Getenv(envPespathJobsDir))
		if dir == "" {
			return nil, fmt.Errorf("a job file is required unless %s is set", envPespathJobsDir)
		}
		args = []string{dir}
	}

	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, filepath.Clean(arg))
			continue
		}
		jobs, err := discoverJobFiles(arg)
		if err != nil {
			return nil, err
		}
		if len(jobs) == 0 {
			return nil, fmt.Errorf("no job files found in %s", arg)
		}
		out = append(out, jobs...)
	}
	return out, nil
}

func discoverJobFiles(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("jobs directory is empty")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	jobs := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			jobs = append(jobs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(jobs)
	return jobs, nil
}

// withFormat swaps the extension of path for the one matching format.
func withFormat(path string, format structio.Format) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format)
}
