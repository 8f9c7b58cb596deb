package record

import (
	"fmt"

	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/labels"
)

// Snapshot is the persisted form of a Store
type Snapshot[P any] struct {
	Labels  map[domain.LabelID]domain.Label `json:"labels"`
	Entries map[int64]P                     `json:"entries"`
}

// Snapshot copies the store's labels and entries
func (s *Store[P]) Snapshot() Snapshot[P] {
	snap := Snapshot[P]{
		Labels:  s.labels.Map(),
		Entries: make(map[int64]P, s.entries.Len()),
	}
	for ts, e := range s.Entries() {
		snap.Entries[ts] = e
	}
	return snap
}

// Restore rebuilds a store from a snapshot. Entries are rebuilt through build,
// which normalizes their labels; a snapshot that references a missing label or
// that build rejects is refused with domain.ErrInvalidInput.
func Restore[P domain.Payload[P]](snap Snapshot[P], build domain.Builder[P]) (*Store[P], error) {
	reg, err := labels.Restore(snap.Labels)
	if err != nil {
		return nil, err
	}

	s := New[P](build)
	s.labels = reg
	for ts, e := range snap.Entries {
		ids := e.Labels()
		for _, id := range ids {
			if !reg.Has(id) {
				return nil, fmt.Errorf("%w: entry %d references missing label %d", domain.ErrInvalidInput, ts, id)
			}
		}
		entry, err := build(e.Text(), ids)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", ts, err)
		}
		s.entries.ReplaceOrInsert(&item[P]{ts: ts, entry: entry})
	}
	return s, nil
}
