package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(5)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	want := c.model.Particles()

	dir := t.TempDir()
	path, err := c.Persist(dir, "cloud.yaml")
	if err != nil {
		t.Fatalf("Persist() error: %v", err)
	}
	if path != filepath.Join(dir, "cloud.yaml") {
		t.Errorf("Persist() path = %q, want it under %q", path, dir)
	}

	// Load into a fresh model of matching shape.
	if err := c.CreateSpheroid(spheroidParams(5)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	if err := c.Load(path); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	got := c.model.Particles()
	if len(got) != len(want) {
		t.Fatalf("loaded %d particles, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("particle %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPersistDefaultName(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(3)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}

	path, err := c.Persist(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Persist() error: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "particles-") || !strings.HasSuffix(base, ".yaml") {
		t.Errorf("default file name = %q, want particles-*.yaml", base)
	}
}

func TestPersistFallsBackToStateDir(t *testing.T) {
	stateDir := t.TempDir()
	sink := &recordingSink{}
	c := NewController(2, "map", stateDir, sink)
	if err := c.CreateSpheroid(spheroidParams(3)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}

	// A path under a regular file cannot be created as a directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing blocker: %v", err)
	}
	badDir := filepath.Join(blocker, "sub")

	path, err := c.Persist(badDir, "cloud.yaml")
	if err != nil {
		t.Fatalf("Persist() error: %v", err)
	}
	if filepath.Dir(path) != stateDir {
		t.Errorf("Persist() wrote to %q, want fallback dir %q", filepath.Dir(path), stateDir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fallback file missing: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(3)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	before := c.model.Particles()

	if err := c.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() did not fail for a missing file")
	}

	after := c.model.Particles()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("failed Load mutated particle state")
		}
	}
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"NotYAML", "x: [1, 2\n"},
		{"MissingTimeCreation", "x: [1]\ny: [1]\nz: [1]\n"},
		{"MissingY", "x: [1]\nz: [1]\ntime_creation: [1]\n"},
		{"UnequalLengths", "x: [1, 2]\ny: [1]\nz: [1]\ntime_creation: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(t)
			if err := c.CreateSpheroid(spheroidParams(3)); err != nil {
				t.Fatalf("CreateSpheroid() error: %v", err)
			}
			before := c.model.Particles()

			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing document: %v", err)
			}

			if err := c.Load(path); err == nil {
				t.Fatal("Load() accepted a bad document")
			}
			after := c.model.Particles()
			if len(after) != len(before) {
				t.Fatal("failed Load mutated particle state")
			}
		})
	}
}

func TestLoadEmptyArraysClearsParticles(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(3)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "empty.yaml")
	content := "x: []\ny: []\nz: []\ntime_creation: []\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing document: %v", err)
	}

	if err := c.Load(path); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := len(c.model.Particles()); got != 0 {
		t.Errorf("particle count after empty load = %d, want 0", got)
	}
}
