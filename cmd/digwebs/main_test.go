package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Suhaibinator/digwebs/pkg/generator"
)

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
	if stdout.String() != usage {
		t.Errorf("Expected usage, got %q", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"deploy"}, &stdout, &stderr); code != 2 {
		t.Errorf("Expected exit code 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "deploy"`) {
		t.Errorf("Unexpected stderr %q", stderr.String())
	}
}

func TestRunNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"new", "-module", "example.com/site", dir}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr.String())
	}
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		t.Fatalf("Failed to read go.mod: %v", err)
	}
	if !strings.HasPrefix(string(mod), "module example.com/site\n") {
		t.Errorf("Unexpected go.mod:\n%s", mod)
	}

	// A second run refuses to overwrite the project
	if code := run([]string{"new", dir}, &stdout, &stderr); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestRunNewWithoutDirectory(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"new"}, &stdout, &stderr); code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
	if stdout.String() != generator.Usage {
		t.Errorf("Expected generator usage, got %q", stdout.String())
	}
}

func TestRunServeMissingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if code := run([]string{"serve", "-config", path}, &stdout, &stderr); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}
