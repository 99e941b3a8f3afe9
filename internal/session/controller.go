package session

import (
	"sync"
	"time"

	"github.com/plume-sim/backend/internal/sim"
)

// PointCloud is the stamped particle-position set handed to the sink each
// tick. Points is empty when no model is configured.
type PointCloud struct {
	FrameID string
	Stamp   time.Time
	Points  []sim.Vector3
}

// Sink receives the rendered output of each tick. Either argument may be
// empty; an empty pair tells observers to clear stale renders.
type Sink interface {
	Publish(markers []sim.Marker, cloud PointCloud)
}

// Controller owns the single mutable model instance and serializes every
// read-modify-write against it through one gate. Request handlers and the
// periodic tick both go through the gate, so no observer can see a model
// mid-replacement.
type Controller struct {
	mu sync.Mutex // the gate; guards model and lastTick

	model    sim.Model
	lastTick time.Time

	rate     float64 // ticks per second, fixed at start
	frameID  string
	stateDir string // fallback directory for persisted particle state
	sink     Sink
	wind     *sim.Wind
}

// NewController builds the controller. rate is clamped by the config
// layer before it gets here; stateDir is the fallback persistence
// directory. The sink must not be nil.
func NewController(rate float64, frameID, stateDir string, sink Sink) *Controller {
	return &Controller{
		lastTick: time.Now(),
		rate:     rate,
		frameID:  frameID,
		stateDir: stateDir,
		sink:     sink,
		wind:     &sim.Wind{},
	}
}

// Period returns the fixed tick period derived from the update rate.
func (c *Controller) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.rate)
}

// HasModel reports whether a model is currently configured.
func (c *Controller) HasModel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model != nil
}
