// Package publisher runs the fixed-period snapshot task. Each tick
// advances the model (when present) through the controller's gate and
// distributes the rendered frame; failures are logged and never stop
// the schedule.
package publisher

import (
	"context"
	"log"
	"time"

	"github.com/plume-sim/backend/internal/observability"
	"github.com/plume-sim/backend/internal/session"
)

type Publisher struct {
	ctrl     *session.Controller
	interval time.Duration
}

func New(ctrl *session.Controller) *Publisher {
	return &Publisher{
		ctrl:     ctrl,
		interval: ctrl.Period(),
	}
}

// Start runs the tick loop until ctx is done. Blocks; run it on its own
// goroutine.
func (p *Publisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Printf("Publisher started (period %s)", p.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Publisher stopped")
			return
		case <-ticker.C:
			p.tick(time.Now())
		}
	}
}

func (p *Publisher) tick(now time.Time) {
	published, err := p.ctrl.Tick(now)
	if err != nil {
		// Skip this frame; the next tick retries from current state.
		log.Printf("tick error: %v", err)
		observability.RecordTick(false)
		return
	}
	if published {
		observability.RecordTick(true)
		observability.SetParticleCount(p.ctrl.Count())
	}
}
