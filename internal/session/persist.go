package session

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plume-sim/backend/internal/sim"
)

// particleFile is the on-disk document: four named numeric arrays of
// equal length, flattened particle coordinates plus per-particle creation
// timestamps in Unix seconds.
type particleFile struct {
	X            []float64 `yaml:"x"`
	Y            []float64 `yaml:"y"`
	Z            []float64 `yaml:"z"`
	TimeCreation []float64 `yaml:"time_creation"`
}

// particleFileIn mirrors particleFile with pointer fields so a load can
// tell a missing array apart from an empty one.
type particleFileIn struct {
	X            *[]float64 `yaml:"x"`
	Y            *[]float64 `yaml:"y"`
	Z            *[]float64 `yaml:"z"`
	TimeCreation *[]float64 `yaml:"time_creation"`
}

// Persist serializes the model's particle state to a YAML file under dir.
// An empty or unwritable dir falls back to the controller's state
// directory. An empty name gets a timestamped default. The file I/O runs
// under the gate; persist is rare and operator-invoked, so stalling one
// tick is an accepted trade-off.
//
// Returns the path written.
func (c *Controller) Persist(dir, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		log.Printf("warning: persist ignored, no model configured")
		return "", ErrNoModel
	}

	if dir == "" {
		dir = c.stateDir
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Printf("Persist dir %q unusable (%v), falling back to %s", dir, err, c.stateDir)
		dir = c.stateDir
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("creating state dir: %w", err)
		}
	}
	if name == "" {
		name = "particles-" + time.Now().Format("20060102-150405") + ".yaml"
	}
	path := filepath.Join(dir, name)

	if err := writeParticleFile(path, c.model.Particles()); err != nil {
		return "", err
	}
	log.Printf("Persisted particle state to %s", path)
	return path, nil
}

// Load replaces the model's particle state from a previously persisted
// file. The read-parse-validate-replace sequence runs under one gate
// acquisition; any failure leaves the model untouched.
func (c *Controller) Load(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		log.Printf("warning: load ignored, no model configured")
		return ErrNoModel
	}

	particles, err := readParticleFile(path)
	if err != nil {
		return err
	}

	c.model.ReplaceParticles(particles)
	log.Printf("Loaded %d particles from %s", len(particles), path)
	return nil
}

// writeParticleFile marshals particles and writes them with the atomic
// temp-file-then-rename pattern.
func writeParticleFile(path string, particles []sim.Particle) error {
	doc := particleFile{
		X:            make([]float64, len(particles)),
		Y:            make([]float64, len(particles)),
		Z:            make([]float64, len(particles)),
		TimeCreation: make([]float64, len(particles)),
	}
	for i, p := range particles {
		doc.X[i] = p.X
		doc.Y[i] = p.Y
		doc.Z[i] = p.Z
		doc.TimeCreation[i] = p.CreatedAt
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling particle state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".particles-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming particle file: %w", err)
	}
	committed = true

	return nil
}

// readParticleFile parses and validates a particle document. All four
// arrays must be present and of equal length.
func readParticleFile(path string) ([]sim.Particle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading particle file: %w", err)
	}

	var doc particleFileIn
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing particle file: %w", err)
	}
	if doc.X == nil || doc.Y == nil || doc.Z == nil || doc.TimeCreation == nil {
		return nil, fmt.Errorf("particle file %s is missing one of x, y, z, time_creation", path)
	}
	n := len(*doc.X)
	if len(*doc.Y) != n || len(*doc.Z) != n || len(*doc.TimeCreation) != n {
		return nil, fmt.Errorf("particle file %s has unequal array lengths (x=%d y=%d z=%d time_creation=%d)",
			path, n, len(*doc.Y), len(*doc.Z), len(*doc.TimeCreation))
	}

	particles := make([]sim.Particle, n)
	for i := 0; i < n; i++ {
		particles[i] = sim.Particle{
			X:         (*doc.X)[i],
			Y:         (*doc.Y)[i],
			Z:         (*doc.Z)[i],
			CreatedAt: (*doc.TimeCreation)[i],
		}
	}
	return particles, nil
}
