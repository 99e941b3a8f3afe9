package sim

import (
	"encoding/json"
	"sync"
	"time"
)

type Variant int

const (
	VariantNone Variant = iota
	Spheroid
	TurbulentDiffusion
)

var variantNames = map[Variant]string{
	VariantNone:        "",
	Spheroid:           "spheroid",
	TurbulentDiffusion: "turbulent_diffusion",
}

var variantFromName = map[string]Variant{
	"":                    VariantNone,
	"spheroid":            Spheroid,
	"turbulent_diffusion": TurbulentDiffusion,
}

func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return "unknown"
}

func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, ok := variantFromName[s]; ok {
		*v = parsed
	}
	return nil
}

// Particle is one simulated point. CreatedAt is Unix seconds so the value
// round-trips through the persistence document unchanged.
type Particle struct {
	X         float64
	Y         float64
	Z         float64
	CreatedAt float64
}

// Marker is one renderable element of a snapshot.
type Marker struct {
	Position Vector3 `json:"position"`
	Scale    float64 `json:"scale"`
}

// Config is the full externally visible configuration of a model. The
// zero value (empty variant label, all-zero fields) is the "no model"
// sentinel reported by queries.
type Config struct {
	Variant             Variant `json:"variant"`
	Source              Vector3 `json:"source"`
	Bounds              Bounds  `json:"bounds"`
	ParticleCount       int     `json:"particleCount"`
	MaxParticlesPerTick int     `json:"maxParticlesPerTick,omitempty"`
	Sigma               Vector3 `json:"sigma"`
}

// Model is the capability handle the controller holds while a simulation
// is configured. Implementations are not safe for concurrent use; the
// controller serializes access through its gate.
type Model interface {
	Variant() Variant
	// Update advances the simulated state to now. A failure means the
	// tick produced no coherent state and must not be published.
	Update(now time.Time) error
	Markers() []Marker
	Positions() []Vector3
	Source() Vector3
	SetSource(p Vector3)
	SetBounds(b Bounds) error
	// SetCounts updates the particle budget. maxPerTick is only
	// meaningful for the turbulent-diffusion variant; other variants
	// ignore it.
	SetCounts(particleCount, maxPerTick int) error
	Config() Config
	Particles() []Particle
	ReplaceParticles(ps []Particle)
}

// Wind holds the ambient velocity fed in asynchronously by the intake
// path. Single writer, any reader; models read it inside Update.
type Wind struct {
	mu sync.RWMutex
	v  Vector3
}

func (w *Wind) Set(v Vector3) {
	w.mu.Lock()
	w.v = v
	w.mu.Unlock()
}

func (w *Wind) Get() Vector3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.v
}

const markerScale = 0.1

func markersFromParticles(ps []Particle) []Marker {
	markers := make([]Marker, len(ps))
	for i, p := range ps {
		markers[i] = Marker{
			Position: Vector3{X: p.X, Y: p.Y, Z: p.Z},
			Scale:    markerScale,
		}
	}
	return markers
}

func positionsFromParticles(ps []Particle) []Vector3 {
	points := make([]Vector3, len(ps))
	for i, p := range ps {
		points[i] = Vector3{X: p.X, Y: p.Y, Z: p.Z}
	}
	return points
}
