package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
)

// cycleTimeout bounds one full poll cycle across all sources.
const cycleTimeout = 10 * time.Minute

// Poller runs continuous background poll cycles.
type Poller struct {
	agg      *Aggregator
	interval time.Duration
	log      *logger.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoller creates a background poller with the given interval.
func NewPoller(agg *Aggregator, interval time.Duration, log *logger.Logger) *Poller {
	return &Poller{
		agg:      agg,
		interval: interval,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop. The first cycle runs immediately.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
			if _, err := p.agg.RunAll(ctx); err != nil {
				p.log.Error("poll cycle error", "err", err)
			}
			cancel()

			select {
			case <-p.stopChan:
				return
			case <-time.After(p.interval):
			}
		}
	}()
}

// Stop stops the poller gracefully, waiting for an in-flight cycle.
func (p *Poller) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}
