package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plume-sim/backend/internal/sim"
)

// recordingSink captures every published frame for inspection.
type recordingSink struct {
	mu     sync.Mutex
	frames []recordedFrame
}

type recordedFrame struct {
	markers []sim.Marker
	cloud   PointCloud
}

func (s *recordingSink) Publish(markers []sim.Marker, cloud PointCloud) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, recordedFrame{markers: markers, cloud: cloud})
}

func (s *recordingSink) Frames() []recordedFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

func newTestController(t *testing.T) (*Controller, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	return NewController(2, "map", t.TempDir(), sink), sink
}

func spheroidParams(count int) sim.SpheroidParams {
	return sim.SpheroidParams{
		Count:  count,
		Source: sim.Vector3{},
		Sigma:  sim.Vector3{X: 1, Y: 1, Z: 1},
		Bounds: sim.Bounds{XMin: -10, XMax: 10, YMin: -10, YMax: 10, ZMin: -10, ZMax: 10},
		Seed:   1,
	}
}

func turbulentParams(count, maxPerTick int) sim.TurbulentParams {
	return sim.TurbulentParams{
		Count:      count,
		MaxPerTick: maxPerTick,
		Sigma:      0.5,
		Bounds:     sim.Bounds{XMin: -10, XMax: 10, YMin: -10, YMax: 10, ZMin: -10, ZMax: 10},
		Seed:       1,
	}
}

func TestOperationsWithoutModel(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.SetSource(sim.Vector3{X: 1}); !errors.Is(err, ErrNoModel) {
		t.Errorf("SetSource error = %v, want ErrNoModel", err)
	}
	if err := c.SetCounts(10, 5); !errors.Is(err, ErrNoModel) {
		t.Errorf("SetCounts error = %v, want ErrNoModel", err)
	}
	if err := c.SetLimits(sim.Bounds{XMax: 1, YMax: 1, ZMax: 1}); !errors.Is(err, ErrNoModel) {
		t.Errorf("SetLimits error = %v, want ErrNoModel", err)
	}
	if _, err := c.Persist("", ""); !errors.Is(err, ErrNoModel) {
		t.Errorf("Persist error = %v, want ErrNoModel", err)
	}
	if err := c.Load("/nonexistent"); !errors.Is(err, ErrNoModel) {
		t.Errorf("Load error = %v, want ErrNoModel", err)
	}

	if got := c.Source(); got != SourceSentinel {
		t.Errorf("Source() = %+v, want sentinel %+v", got, SourceSentinel)
	}
	if got := c.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if got := c.ConfigSnapshot(); got != (sim.Config{}) {
		t.Errorf("ConfigSnapshot() = %+v, want zero config", got)
	}
	if c.HasModel() {
		t.Error("HasModel() = true with no model")
	}
}

// The example scenario: create a static model with 1000 points, query it,
// delete it, and verify every query returns the empty sentinel afterwards.
func TestCreateQueryDeleteScenario(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.CreateSpheroid(spheroidParams(1000)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	if got := c.Count(); got != 1000 {
		t.Errorf("Count() = %d, want 1000", got)
	}

	cfg := c.ConfigSnapshot()
	if cfg.Variant != sim.Spheroid {
		t.Errorf("variant = %v, want %v", cfg.Variant, sim.Spheroid)
	}
	wantBounds := sim.Bounds{XMin: -10, XMax: 10, YMin: -10, YMax: 10, ZMin: -10, ZMax: 10}
	if cfg.Bounds != wantBounds {
		t.Errorf("bounds = %+v, want %+v", cfg.Bounds, wantBounds)
	}
	if got := c.Source(); got != (sim.Vector3{}) {
		t.Errorf("Source() = %+v, want origin", got)
	}

	c.Delete()

	if got := c.Count(); got != 0 {
		t.Errorf("Count() after delete = %d, want 0", got)
	}
	if got := c.Source(); got != SourceSentinel {
		t.Errorf("Source() after delete = %+v, want sentinel", got)
	}
	if got := c.ConfigSnapshot(); got != (sim.Config{}) {
		t.Errorf("ConfigSnapshot() after delete = %+v, want zero config", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(10)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	c.Delete()
	c.Delete() // second delete is a safe no-op
	if c.HasModel() {
		t.Error("model present after double delete")
	}
}

func TestCreateRejectsInvalidWithoutMutation(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.CreateSpheroid(spheroidParams(0)); err == nil {
		t.Fatal("CreateSpheroid accepted zero count")
	}
	if c.HasModel() {
		t.Error("failed create left a model behind")
	}

	// A failed create while a model exists leaves the old model intact.
	if err := c.CreateSpheroid(spheroidParams(50)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	if err := c.CreateTurbulent(turbulentParams(-1, 2)); err == nil {
		t.Fatal("CreateTurbulent accepted negative count")
	}
	if got := c.Count(); got != 50 {
		t.Errorf("Count() after failed create = %d, want 50", got)
	}
	if got := c.ConfigSnapshot().Variant; got != sim.Spheroid {
		t.Errorf("variant after failed create = %v, want spheroid", got)
	}
}

func TestCreateReplacesSilently(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(10)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	if err := c.CreateTurbulent(turbulentParams(20, 5)); err != nil {
		t.Fatalf("CreateTurbulent() error: %v", err)
	}
	cfg := c.ConfigSnapshot()
	if cfg.Variant != sim.TurbulentDiffusion {
		t.Errorf("variant = %v, want turbulent_diffusion", cfg.Variant)
	}
	if cfg.ParticleCount != 20 || cfg.MaxParticlesPerTick != 5 {
		t.Errorf("counts = (%d, %d), want (20, 5)", cfg.ParticleCount, cfg.MaxParticlesPerTick)
	}
}

func TestSetSource(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateTurbulent(turbulentParams(20, 5)); err != nil {
		t.Fatalf("CreateTurbulent() error: %v", err)
	}
	want := sim.Vector3{X: 1, Y: 2, Z: 3}
	if err := c.SetSource(want); err != nil {
		t.Fatalf("SetSource() error: %v", err)
	}
	if got := c.Source(); got != want {
		t.Errorf("Source() = %+v, want %+v", got, want)
	}
}

func TestSetLimitsRejectsInverted(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(10)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	before := c.ConfigSnapshot().Bounds

	inverted := sim.Bounds{XMin: 5, XMax: -5}
	if err := c.SetLimits(inverted); err == nil {
		t.Fatal("SetLimits accepted an inverted interval")
	}
	if got := c.ConfigSnapshot().Bounds; got != before {
		t.Errorf("bounds mutated by rejected SetLimits: %+v", got)
	}
}

func TestSetLimitsUpdatesBounds(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(10)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	want := sim.Bounds{XMin: -1, XMax: 1, YMin: -2, YMax: 2, ZMin: 0, ZMax: 4}
	if err := c.SetLimits(want); err != nil {
		t.Fatalf("SetLimits() error: %v", err)
	}
	if got := c.ConfigSnapshot().Bounds; got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestSetCountsSpheroidIgnoresPerTickCap(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateSpheroid(spheroidParams(10)); err != nil {
		t.Fatalf("CreateSpheroid() error: %v", err)
	}
	if err := c.SetCounts(30, 7); err != nil {
		t.Fatalf("SetCounts() error: %v", err)
	}
	cfg := c.ConfigSnapshot()
	if cfg.ParticleCount != 30 {
		t.Errorf("particle count = %d, want 30", cfg.ParticleCount)
	}
	if cfg.MaxParticlesPerTick != 0 {
		t.Errorf("spheroid stored per-tick cap %d, want silently ignored", cfg.MaxParticlesPerTick)
	}
}

func TestSetCountsRejectsNegative(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.CreateTurbulent(turbulentParams(20, 5)); err != nil {
		t.Fatalf("CreateTurbulent() error: %v", err)
	}
	if err := c.SetCounts(-3, 5); err == nil {
		t.Error("SetCounts accepted a negative count")
	}
	if got := c.Count(); got != 20 {
		t.Errorf("Count() after rejected SetCounts = %d, want 20", got)
	}
}

func TestPeriod(t *testing.T) {
	sink := &recordingSink{}
	tests := []struct {
		rate float64
		want time.Duration
	}{
		{2, 500 * time.Millisecond},
		{0.05, 20 * time.Second},
		{10, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		c := NewController(tt.rate, "map", t.TempDir(), sink)
		if got := c.Period(); got != tt.want {
			t.Errorf("Period() at %g Hz = %s, want %s", tt.rate, got, tt.want)
		}
	}
}
