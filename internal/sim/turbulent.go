package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// TurbulentParams configures the dynamic turbulent-diffusion distribution.
type TurbulentParams struct {
	// Count is the particle budget; the cloud never exceeds it.
	Count int
	// MaxPerTick caps how many particles one Update may release.
	MaxPerTick int
	Source     Vector3
	// Sigma scales the random-walk displacement per sqrt-second.
	Sigma  float64
	Bounds Bounds
	// Seed fixes the random walk; zero seeds from the clock.
	Seed int64
}

func (p TurbulentParams) validate() error {
	if p.Count <= 0 {
		return fmt.Errorf("particle count must be positive, got %d", p.Count)
	}
	if p.MaxPerTick < 0 {
		return fmt.Errorf("max particles per tick must be non-negative, got %d", p.MaxPerTick)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("turbulence sigma must be positive, got %g", p.Sigma)
	}
	if !p.Bounds.Valid() {
		return fmt.Errorf("inverted bounds interval: %+v", p.Bounds)
	}
	return nil
}

// turbulentModel releases particles at the source each tick and advects
// the cloud by ambient wind plus a gaussian random walk. Particles that
// drift outside the bounds are removed.
type turbulentModel struct {
	source     Vector3
	sigma      float64
	bounds     Bounds
	count      int
	maxPerTick int
	particles  []Particle
	wind       *Wind
	rng        *rand.Rand
	lastUpdate time.Time
}

// NewTurbulent builds a turbulent-diffusion model. The cloud starts empty;
// particles appear as Update releases them. wind may not be nil.
func NewTurbulent(p TurbulentParams, wind *Wind) (Model, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if wind == nil {
		return nil, fmt.Errorf("nil wind field")
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &turbulentModel{
		source:     p.Source,
		sigma:      p.Sigma,
		bounds:     p.Bounds,
		count:      p.Count,
		maxPerTick: p.MaxPerTick,
		wind:       wind,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

func (m *turbulentModel) Variant() Variant { return TurbulentDiffusion }

func (m *turbulentModel) Update(now time.Time) error {
	var dt float64
	if !m.lastUpdate.IsZero() {
		dt = now.Sub(m.lastUpdate).Seconds()
		if dt < 0 {
			return fmt.Errorf("update time went backwards by %gs", -dt)
		}
	}
	m.lastUpdate = now

	wind := m.wind.Get()
	walk := m.sigma * math.Sqrt(dt)

	// Advect the existing cloud, dropping particles that leave the box.
	kept := m.particles[:0]
	for _, p := range m.particles {
		p.X += wind.X*dt + m.rng.NormFloat64()*walk
		p.Y += wind.Y*dt + m.rng.NormFloat64()*walk
		p.Z += wind.Z*dt + m.rng.NormFloat64()*walk
		if !m.bounds.Contains(Vector3{X: p.X, Y: p.Y, Z: p.Z}) {
			continue
		}
		kept = append(kept, p)
	}
	m.particles = kept

	// Release new particles at the source, respecting both caps.
	release := m.maxPerTick
	if room := m.count - len(m.particles); release > room {
		release = room
	}
	created := float64(now.UnixNano()) / 1e9
	for i := 0; i < release; i++ {
		m.particles = append(m.particles, Particle{
			X: m.source.X, Y: m.source.Y, Z: m.source.Z,
			CreatedAt: created,
		})
	}

	// A shrunk budget can leave the cloud over the cap; drop the oldest.
	if len(m.particles) > m.count {
		m.particles = m.particles[len(m.particles)-m.count:]
	}

	return nil
}

func (m *turbulentModel) Markers() []Marker    { return markersFromParticles(m.particles) }
func (m *turbulentModel) Positions() []Vector3 { return positionsFromParticles(m.particles) }

func (m *turbulentModel) Source() Vector3     { return m.source }
func (m *turbulentModel) SetSource(p Vector3) { m.source = p }

func (m *turbulentModel) SetBounds(b Bounds) error {
	if !b.Valid() {
		return fmt.Errorf("inverted bounds interval: %+v", b)
	}
	m.bounds = b
	return nil
}

func (m *turbulentModel) SetCounts(particleCount, maxPerTick int) error {
	if particleCount < 0 {
		return fmt.Errorf("particle count must be non-negative, got %d", particleCount)
	}
	if maxPerTick < 0 {
		return fmt.Errorf("max particles per tick must be non-negative, got %d", maxPerTick)
	}
	m.count = particleCount
	m.maxPerTick = maxPerTick
	return nil
}

func (m *turbulentModel) Config() Config {
	return Config{
		Variant:             TurbulentDiffusion,
		Source:              m.source,
		Bounds:              m.bounds,
		ParticleCount:       m.count,
		MaxParticlesPerTick: m.maxPerTick,
		Sigma:               Vector3{X: m.sigma, Y: m.sigma, Z: m.sigma},
	}
}

func (m *turbulentModel) Particles() []Particle {
	out := make([]Particle, len(m.particles))
	copy(out, m.particles)
	return out
}

func (m *turbulentModel) ReplaceParticles(ps []Particle) {
	m.particles = make([]Particle, len(ps))
	copy(m.particles, ps)
}
