package migration

import (
	"fmt"
	"sort"
)

// Registry is the ordered collection of all known migration units, sorted by
// version ascending, with a uniqueness invariant on version numbers. It is
// immutable once constructed.
type Registry struct {
	units []Unit
}

// NewRegistry validates and orders the given units. Non-positive or duplicate
// versions and missing Up procedures are construction errors.
func NewRegistry(units []Unit) (*Registry, error) {
	ordered := append([]Unit(nil), units...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	seen := make(map[int]string, len(ordered))
	for _, unit := range ordered {
		if unit.Version <= 0 {
			return nil, fmt.Errorf("%w: %d (%s)", ErrInvalidVersion, unit.Version, unit.Name)
		}
		if unit.Up == nil {
			return nil, fmt.Errorf("%w: version %d (%s)", ErrMissingUp, unit.Version, unit.Name)
		}
		if prior, ok := seen[unit.Version]; ok {
			return nil, fmt.Errorf("%w: version %d used by %q and %q", ErrDuplicateVersion, unit.Version, prior, unit.Name)
		}
		seen[unit.Version] = unit.Name
	}

	return &Registry{units: ordered}, nil
}

// Units returns the ordered units. The returned slice is a copy.
func (r *Registry) Units() []Unit {
	return append([]Unit(nil), r.units...)
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	return len(r.units)
}

// DefaultRegistry returns the registry of all released homedash migrations.
// The unit list is static; a construction failure is a programming error.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(defaultUnits)
	if err != nil {
		panic(err)
	}
	return registry
}
