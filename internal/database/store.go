// Package database provides the event store backing the aggregator.
package database

import (
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// Store is the contract the pipeline needs from persistent storage.
// Writes are namespaced by source: WriteEvents fully replaces the prior
// event set for that source, never merges, which keeps independent
// source pipelines free of lost-update races.
type Store interface {
	Close() error

	// WriteEvents replaces every stored event for the source.
	WriteEvents(sourceID string, events []model.CanonicalEvent) error
	// WriteMetadata records the outcome of the source's latest cycle.
	WriteMetadata(md model.SourceMetadata) error

	ReadEvents(sourceID string) ([]model.CanonicalEvent, error)
	// ReadAllEvents returns every stored event ordered by source id and
	// insertion order, so concatenation across sources is deterministic.
	ReadAllEvents() ([]model.CanonicalEvent, error)
	ReadAllMetadata() (map[string]model.SourceMetadata, error)
}
