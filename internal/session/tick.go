package session

import (
	"fmt"
	"time"
)

// Tick runs one cycle of the periodic snapshot task: advance the model if
// present, render, and hand the result to the sink. The whole sequence
// holds the gate so a concurrent delete or load can never interleave
// between the model read and the publish — every published frame is from
// exactly one model generation.
//
// Returns whether a frame was published. An error means the model's
// update rejected the tick; nothing is published and the next tick tries
// again from current state.
func (c *Controller) Tick(now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Clock non-monotonicity guard: publish nothing and keep lastTick
	// so elapsed time stays meaningful.
	if !now.After(c.lastTick) {
		return false, nil
	}

	if c.model == nil {
		c.sink.Publish(nil, PointCloud{FrameID: c.frameID, Stamp: now})
		c.lastTick = now
		return true, nil
	}

	if err := c.model.Update(now); err != nil {
		return false, fmt.Errorf("model update: %w", err)
	}

	c.sink.Publish(c.model.Markers(), PointCloud{
		FrameID: c.frameID,
		Stamp:   now,
		Points:  c.model.Positions(),
	})
	c.lastTick = now
	return true, nil
}
