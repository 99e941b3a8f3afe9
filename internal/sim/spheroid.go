package sim

import (
	"fmt"
	"math/rand"
	"time"
)

// SpheroidParams configures the static spheroid distribution.
type SpheroidParams struct {
	Count  int
	Source Vector3
	// Sigma is the per-axis standard deviation of the gaussian ellipsoid
	// the particles are sampled from.
	Sigma  Vector3
	Bounds Bounds
	// Seed fixes the sampling sequence; zero seeds from the clock.
	Seed int64
}

func (p SpheroidParams) validate() error {
	if p.Count <= 0 {
		return fmt.Errorf("particle count must be positive, got %d", p.Count)
	}
	if p.Sigma.X <= 0 || p.Sigma.Y <= 0 || p.Sigma.Z <= 0 {
		return fmt.Errorf("sigma components must be positive, got %+v", p.Sigma)
	}
	if !p.Bounds.Valid() {
		return fmt.Errorf("inverted bounds interval: %+v", p.Bounds)
	}
	return nil
}

// spheroidModel is the static variant: particles are sampled once around
// the source and only re-sampled when the source or counts change.
type spheroidModel struct {
	source    Vector3
	sigma     Vector3
	bounds    Bounds
	count     int
	particles []Particle
	rng       *rand.Rand
}

// NewSpheroid builds a static spheroid model, sampling its particles
// immediately. now stamps the initial particle creation times.
func NewSpheroid(p SpheroidParams, now time.Time) (Model, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := &spheroidModel{
		source: p.Source,
		sigma:  p.Sigma,
		bounds: p.Bounds,
		count:  p.Count,
		rng:    rand.New(rand.NewSource(seed)),
	}
	m.resample(now)
	return m, nil
}

func (m *spheroidModel) resample(now time.Time) {
	created := float64(now.UnixNano()) / 1e9
	m.particles = make([]Particle, m.count)
	for i := range m.particles {
		p := Vector3{
			X: m.source.X + m.rng.NormFloat64()*m.sigma.X,
			Y: m.source.Y + m.rng.NormFloat64()*m.sigma.Y,
			Z: m.source.Z + m.rng.NormFloat64()*m.sigma.Z,
		}
		p = m.bounds.Clamp(p)
		m.particles[i] = Particle{X: p.X, Y: p.Y, Z: p.Z, CreatedAt: created}
	}
}

func (m *spheroidModel) Variant() Variant { return Spheroid }

// Update is a no-op for the static variant.
func (m *spheroidModel) Update(now time.Time) error { return nil }

func (m *spheroidModel) Markers() []Marker    { return markersFromParticles(m.particles) }
func (m *spheroidModel) Positions() []Vector3 { return positionsFromParticles(m.particles) }

func (m *spheroidModel) Source() Vector3 { return m.source }

func (m *spheroidModel) SetSource(p Vector3) {
	m.source = p
	m.resample(time.Now())
}

func (m *spheroidModel) SetBounds(b Bounds) error {
	if !b.Valid() {
		return fmt.Errorf("inverted bounds interval: %+v", b)
	}
	m.bounds = b
	m.resample(time.Now())
	return nil
}

func (m *spheroidModel) SetCounts(particleCount, maxPerTick int) error {
	if particleCount < 0 {
		return fmt.Errorf("particle count must be non-negative, got %d", particleCount)
	}
	m.count = particleCount
	m.resample(time.Now())
	return nil
}

func (m *spheroidModel) Config() Config {
	return Config{
		Variant:       Spheroid,
		Source:        m.source,
		Bounds:        m.bounds,
		ParticleCount: m.count,
		Sigma:         m.sigma,
	}
}

func (m *spheroidModel) Particles() []Particle {
	out := make([]Particle, len(m.particles))
	copy(out, m.particles)
	return out
}

func (m *spheroidModel) ReplaceParticles(ps []Particle) {
	m.particles = make([]Particle, len(ps))
	copy(m.particles, ps)
}
