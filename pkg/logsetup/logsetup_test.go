package logsetup

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/config"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")
	closer := Init(config.LogConfig{File: path, MaxSizeMB: 1})
	defer log.SetOutput(os.Stderr)

	log.Println("Power limit: full")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Power limit: full") {
		t.Fatalf("Log line missing from file: %q", b)
	}
}

func TestInitStdoutOnly(t *testing.T) {
	closer := Init(config.LogConfig{})
	defer log.SetOutput(os.Stderr)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
}
