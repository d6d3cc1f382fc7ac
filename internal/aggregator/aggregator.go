// Package aggregator runs the per-source fetch-and-parse cycles and
// merges their results into the event store.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/clock"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/config"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/database"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/dedupe"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/parser"
)

// ErrAllSourcesFailed is returned only when every source in a cycle
// failed. A mix of success and failure is the expected steady state and
// reports as partial success, not an error.
var ErrAllSourcesFailed = errors.New("all sources failed")

// MaxConcurrentSources bounds parallel source cycles.
const MaxConcurrentSources = 4

// Fetcher retrieves one raw payload. Satisfied by fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Result is the outcome of one source's cycle.
type Result struct {
	SourceID   string
	EventCount int
	Err        error
}

// Summary aggregates a full cycle.
type Summary struct {
	Results     map[string]Result
	TotalEvents int
	Failed      int
}

// Aggregator drives the source pipelines.
type Aggregator struct {
	store   database.Store
	fetcher Fetcher
	sources []config.SourceConfig
	policy  clock.Policy
	log     *logger.Logger
	now     func() time.Time
}

// New builds an aggregator over the enabled sources.
func New(store database.Store, fetcher Fetcher, sources []config.SourceConfig, policy clock.Policy, log *logger.Logger) *Aggregator {
	return &Aggregator{
		store:   store,
		fetcher: fetcher,
		sources: sources,
		policy:  policy,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunSource executes one source's sequential pipeline: fetch, parse,
// replace the source's stored events, record metadata. Every failure is
// recorded in metadata and the source simply contributes zero events.
func (a *Aggregator) RunSource(ctx context.Context, src config.SourceConfig) Result {
	res := Result{SourceID: src.ID}
	now := a.now()

	events, err := a.collect(ctx, src)
	if err != nil {
		res.Err = err
		a.log.Error("source cycle failed", "source", src.ID, "err", err)
		if mdErr := a.store.WriteMetadata(model.SourceMetadata{
			SourceID:     src.ID,
			LastAttempt:  now,
			Status:       model.StatusError,
			ErrorMessage: truncate(err.Error(), 200),
		}); mdErr != nil {
			a.log.Error("write metadata failed", "source", src.ID, "err", mdErr)
		}
		return res
	}

	if err := a.store.WriteEvents(src.ID, events); err != nil {
		res.Err = fmt.Errorf("store events: %w", err)
		a.log.Error("source cycle failed", "source", src.ID, "err", res.Err)
		return res
	}
	res.EventCount = len(events)

	if err := a.store.WriteMetadata(model.SourceMetadata{
		SourceID:         src.ID,
		LastAttempt:      now,
		Status:           model.StatusSuccess,
		EventCount:       len(events),
		LastSuccessfulAt: &now,
	}); err != nil {
		a.log.Error("write metadata failed", "source", src.ID, "err", err)
	}

	a.log.Info("source cycle completed", "source", src.ID, "events", len(events))
	return res
}

func (a *Aggregator) collect(ctx context.Context, src config.SourceConfig) ([]model.CanonicalEvent, error) {
	payload, err := a.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	p, err := parser.ForType(src.Type)
	if err != nil {
		return nil, err
	}
	events, err := p.Parse(payload, parser.Context{
		SourceID:   src.ID,
		RinkID:     src.RinkID,
		Policy:     a.policy,
		Log:        a.log,
		WindowDays: src.WindowDays,
		Now:        a.now(),
	})
	if err != nil {
		return nil, err
	}
	// Collapse duplicates a single source emits for the same session;
	// cross-source duplicates are handled again at query time.
	return dedupe.Events(events), nil
}

// RunAll runs every source cycle through a bounded worker pool. One
// slow or broken source never blocks or fails the rest; the returned
// error is non-nil only when every source failed.
func (a *Aggregator) RunAll(ctx context.Context) (Summary, error) {
	summary := Summary{Results: make(map[string]Result, len(a.sources))}
	if len(a.sources) == 0 {
		return summary, nil
	}

	workers := MaxConcurrentSources
	if len(a.sources) < workers {
		workers = len(a.sources)
	}

	srcChan := make(chan config.SourceConfig, len(a.sources))
	resChan := make(chan Result, len(a.sources))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range srcChan {
				select {
				case <-ctx.Done():
					resChan <- Result{SourceID: src.ID, Err: ctx.Err()}
					continue
				default:
				}
				resChan <- a.RunSource(ctx, src)
			}
		}()
	}

	for _, src := range a.sources {
		srcChan <- src
	}
	close(srcChan)

	go func() {
		wg.Wait()
		close(resChan)
	}()

	for res := range resChan {
		summary.Results[res.SourceID] = res
		if res.Err != nil {
			summary.Failed++
		} else {
			summary.TotalEvents += res.EventCount
		}
	}

	if summary.Failed == len(a.sources) {
		return summary, ErrAllSourcesFailed
	}
	a.log.Info("poll cycle completed",
		"sources", len(a.sources), "failed", summary.Failed, "events", summary.TotalEvents)
	return summary, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
