// Package labels owns the set of labels a record store may reference.
//
// Short names are unique keys, compared after Unicode NFC normalization.
// Ids are the smallest non-negative integer not in use at allocation time,
// so an id freed by Remove is handed out again by the next Add.
package labels

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pbaille/journal/internal/domain"
)

// Registry maps label ids to labels and short names to ids
type Registry struct {
	labels map[domain.LabelID]domain.Label
	byName map[string]domain.LabelID

	// every id below low is in use
	low domain.LabelID
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		labels: make(map[domain.LabelID]domain.Label),
		byName: make(map[string]domain.LabelID),
	}
}

// Restore rebuilds a registry from persisted labels
func Restore(labels map[domain.LabelID]domain.Label) (*Registry, error) {
	r := NewRegistry()
	for _, id := range slices.Sorted(maps.Keys(labels)) {
		l := labels[id]
		if isBlank(l.LongName) || isBlank(l.ShortName) {
			return nil, fmt.Errorf("%w: label %d has an empty name", domain.ErrInvalidInput, id)
		}
		key := normalize(l.ShortName)
		if other, taken := r.byName[key]; taken {
			return nil, fmt.Errorf("%w: labels %d and %d share short name %q", domain.ErrInvalidInput, other, id, l.ShortName)
		}
		r.labels[id] = l
		r.byName[key] = id
	}
	return r, nil
}

// Add registers a label and returns its id
func (r *Registry) Add(longName, shortName string) (domain.LabelID, error) {
	if isBlank(longName) || isBlank(shortName) {
		return 0, fmt.Errorf("%w: label needs a long and a short name", domain.ErrInvalidInput)
	}
	key := normalize(shortName)
	if _, taken := r.byName[key]; taken {
		return 0, fmt.Errorf("%w: label %q", domain.ErrAlreadyExists, shortName)
	}

	id := r.allocate()
	r.labels[id] = domain.Label{LongName: longName, ShortName: shortName}
	r.byName[key] = id
	return id, nil
}

// Remove deletes the label with the given short name and returns the freed id.
// The caller is responsible for stripping the id from entries.
func (r *Registry) Remove(shortName string) (domain.LabelID, error) {
	key := normalize(shortName)
	id, ok := r.byName[key]
	if !ok {
		return 0, fmt.Errorf("%w: no label %q", domain.ErrInvalidInput, shortName)
	}
	delete(r.byName, key)
	delete(r.labels, id)
	if id < r.low {
		r.low = id
	}
	return id, nil
}

// LookupID returns the id registered under shortName
func (r *Registry) LookupID(shortName string) (domain.LabelID, bool) {
	id, ok := r.byName[normalize(shortName)]
	return id, ok
}

// Get returns the label with the given id
func (r *Registry) Get(id domain.LabelID) (domain.Label, bool) {
	l, ok := r.labels[id]
	return l, ok
}

// Has reports whether id is in use
func (r *Registry) Has(id domain.LabelID) bool {
	_, ok := r.labels[id]
	return ok
}

// Len returns the number of labels
func (r *Registry) Len() int {
	return len(r.labels)
}

// All yields every label in ascending id order
func (r *Registry) All() iter.Seq2[domain.LabelID, domain.Label] {
	return func(yield func(domain.LabelID, domain.Label) bool) {
		for _, id := range slices.Sorted(maps.Keys(r.labels)) {
			if !yield(id, r.labels[id]) {
				return
			}
		}
	}
}

// Map returns a copy of the id to label mapping
func (r *Registry) Map() map[domain.LabelID]domain.Label {
	return maps.Clone(r.labels)
}

// Resolve maps short names to sorted, deduplicated ids. It fails on the first
// unknown name and never mutates the registry.
func (r *Registry) Resolve(shortNames []string) ([]domain.LabelID, error) {
	names := slices.Clone(shortNames)
	slices.Sort(names)
	names = slices.Compact(names)

	ids := make([]domain.LabelID, 0, len(names))
	for _, name := range names {
		id, ok := r.LookupID(name)
		if !ok {
			return nil, fmt.Errorf("%w: no label %q", domain.ErrInvalidInput, name)
		}
		ids = append(ids, id)
	}
	return domain.NormalizeIDs(ids), nil
}

// allocate returns the smallest id not in use. The scan starts at low and
// passes at most Len() used ids.
func (r *Registry) allocate() domain.LabelID {
	for r.Has(r.low) {
		r.low++
	}
	id := r.low
	r.low++
	return id
}

func normalize(name string) string {
	return norm.NFC.String(name)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
