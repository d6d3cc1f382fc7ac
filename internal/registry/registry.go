// Package registry holds the immutable rink and facility tables. The
// registry is built once at startup from configuration and passed to the
// components that need it; nothing mutates it afterwards.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/model"
)

// ScopeAll is the scope id for the "all rinks" view.
const ScopeAll = "all"

var (
	ErrUnknownRink     = errors.New("unknown rink id")
	ErrUnknownScope    = errors.New("unknown scope id")
	ErrUnknownFacility = errors.New("rink references unknown facility")
	ErrDuplicateID     = errors.New("duplicate registry id")
)

// Registry resolves rink and facility ids.
type Registry struct {
	rinks      map[string]model.Rink
	facilities map[string]model.Facility
	members    map[string][]string // facility id -> member rink ids
	rinkOrder  []string
}

// New builds a registry and validates referential integrity: every rink
// must belong to exactly one known facility, and ids must not collide.
func New(facilities []model.Facility, rinks []model.Rink) (*Registry, error) {
	r := &Registry{
		rinks:      make(map[string]model.Rink, len(rinks)),
		facilities: make(map[string]model.Facility, len(facilities)),
		members:    make(map[string][]string),
	}
	for _, f := range facilities {
		if _, ok := r.facilities[f.ID]; ok {
			return nil, fmt.Errorf("%w: facility %q", ErrDuplicateID, f.ID)
		}
		r.facilities[f.ID] = f
	}
	for _, rink := range rinks {
		if _, ok := r.rinks[rink.ID]; ok {
			return nil, fmt.Errorf("%w: rink %q", ErrDuplicateID, rink.ID)
		}
		if _, ok := r.facilities[rink.ID]; ok {
			return nil, fmt.Errorf("%w: rink %q collides with facility", ErrDuplicateID, rink.ID)
		}
		if _, ok := r.facilities[rink.FacilityID]; !ok {
			return nil, fmt.Errorf("%w: rink %q -> %q", ErrUnknownFacility, rink.ID, rink.FacilityID)
		}
		r.rinks[rink.ID] = rink
		r.members[rink.FacilityID] = append(r.members[rink.FacilityID], rink.ID)
		r.rinkOrder = append(r.rinkOrder, rink.ID)
	}
	return r, nil
}

// Rink looks up a leaf rink by id.
func (r *Registry) Rink(id string) (model.Rink, bool) {
	rink, ok := r.rinks[id]
	return rink, ok
}

// Facility looks up a facility by id.
func (r *Registry) Facility(id string) (model.Facility, bool) {
	f, ok := r.facilities[id]
	return f, ok
}

// IsFacility reports whether id names a facility (as opposed to a rink).
func (r *Registry) IsFacility(id string) bool {
	_, ok := r.facilities[id]
	return ok
}

// RinkIDs returns every leaf rink id in registration order.
func (r *Registry) RinkIDs() []string {
	out := make([]string, len(r.rinkOrder))
	copy(out, r.rinkOrder)
	return out
}

// Rinks returns every rink in registration order.
func (r *Registry) Rinks() []model.Rink {
	out := make([]model.Rink, 0, len(r.rinkOrder))
	for _, id := range r.rinkOrder {
		out = append(out, r.rinks[id])
	}
	return out
}

// Facilities returns every facility, sorted by id for stable output.
func (r *Registry) Facilities() []model.Facility {
	out := make([]model.Facility, 0, len(r.facilities))
	for _, f := range r.facilities {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExpandScope resolves a scope id to the set of leaf rink ids it covers:
// ScopeAll (or empty) covers everything, a facility id covers its member
// rinks, a rink id covers itself.
func (r *Registry) ExpandScope(id string) ([]string, error) {
	if id == "" || id == ScopeAll {
		return r.RinkIDs(), nil
	}
	if members, ok := r.members[id]; ok {
		out := make([]string, len(members))
		copy(out, members)
		return out, nil
	}
	if _, ok := r.rinks[id]; ok {
		return []string{id}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScope, id)
}

// Label returns the human-readable display label for a rink, prefixed
// with its facility when the facility owns more than one sheet.
func (r *Registry) Label(rinkID string) string {
	rink, ok := r.rinks[rinkID]
	if !ok {
		return rinkID
	}
	facility, ok := r.facilities[rink.FacilityID]
	if !ok || len(r.members[rink.FacilityID]) <= 1 {
		return rink.DisplayName
	}
	return facility.DisplayName + " - " + rink.DisplayName
}
