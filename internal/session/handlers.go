package session

import (
	"fmt"
	"log"
	"time"

	"github.com/plume-sim/backend/internal/sim"
)

// SourceSentinel is reported by Source when no model is configured.
var SourceSentinel = sim.Vector3{X: -1, Y: -1, Z: -1}

// ErrNoModel is returned by operations that require a configured model.
// It marks an expected condition, not a controller fault.
var ErrNoModel = fmt.Errorf("no model configured")

// CreateSpheroid replaces the current model (if any) with a static
// spheroid distribution. Parameter validation happens in the model
// constructor, outside the gate; a failed create leaves the previous
// model untouched.
func (c *Controller) CreateSpheroid(p sim.SpheroidParams) error {
	m, err := sim.NewSpheroid(p, time.Now())
	if err != nil {
		return fmt.Errorf("create spheroid: %w", err)
	}

	c.mu.Lock()
	c.model = m
	c.mu.Unlock()

	log.Printf("Created spheroid model: %d particles at (%g, %g, %g)",
		p.Count, p.Source.X, p.Source.Y, p.Source.Z)
	return nil
}

// CreateTurbulent replaces the current model (if any) with a dynamic
// turbulent-diffusion distribution.
func (c *Controller) CreateTurbulent(p sim.TurbulentParams) error {
	m, err := sim.NewTurbulent(p, c.wind)
	if err != nil {
		return fmt.Errorf("create turbulent: %w", err)
	}

	c.mu.Lock()
	c.model = m
	c.mu.Unlock()

	log.Printf("Created turbulent-diffusion model: budget %d, %d per tick",
		p.Count, p.MaxPerTick)
	return nil
}

// Delete clears the model. Deleting when no model exists is a no-op;
// the operation never fails.
func (c *Controller) Delete() {
	c.mu.Lock()
	had := c.model != nil
	c.model = nil
	c.mu.Unlock()

	if had {
		log.Printf("Deleted model")
	}
}

// SetSource overwrites the model's source position.
func (c *Controller) SetSource(p sim.Vector3) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		log.Printf("warning: set source ignored, no model configured")
		return ErrNoModel
	}
	c.model.SetSource(p)
	return nil
}

// Source returns the model's source position, or the (-1,-1,-1) sentinel
// when no model is configured. Never fails.
func (c *Controller) Source() sim.Vector3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return SourceSentinel
	}
	return c.model.Source()
}

// Count returns the model's particle budget, or 0 when no model is
// configured. Never fails.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return 0
	}
	return c.model.Config().ParticleCount
}

// ConfigSnapshot returns the model's full configuration, or the zero
// config (empty variant label) when no model is configured. Never fails.
func (c *Controller) ConfigSnapshot() sim.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return sim.Config{}
	}
	return c.model.Config()
}

// SetCounts updates the particle budget and, for the turbulent-diffusion
// variant only, the per-tick release cap. The cap is silently ignored by
// other variants.
func (c *Controller) SetCounts(particleCount, maxPerTick int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		log.Printf("warning: set counts ignored, no model configured")
		return ErrNoModel
	}
	if err := c.model.SetCounts(particleCount, maxPerTick); err != nil {
		return fmt.Errorf("set counts: %w", err)
	}
	return nil
}

// SetLimits overwrites all six bounds. Inverted intervals are rejected
// without touching the stored bounds.
func (c *Controller) SetLimits(b sim.Bounds) error {
	if !b.Valid() {
		return fmt.Errorf("inverted bounds interval: %+v", b)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		log.Printf("warning: set limits ignored, no model configured")
		return ErrNoModel
	}
	if err := c.model.SetBounds(b); err != nil {
		return fmt.Errorf("set limits: %w", err)
	}
	return nil
}

// SetWind records the ambient velocity. The vector is consumed by the
// model's own update; while no model exists the intake is ignored.
func (c *Controller) SetWind(v sim.Vector3) {
	c.wind.Set(v)
}
