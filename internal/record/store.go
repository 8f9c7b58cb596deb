package record

import (
	"fmt"
	"iter"

	"github.com/google/btree"

	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/labels"
)

const btreeDegree = 16

type item[P any] struct {
	ts    int64
	entry P
}

func lessItem[P any](a, b *item[P]) bool {
	return a.ts < b.ts
}

// Store holds labels and timestamped entries of one payload flavor.
// It is not safe for concurrent use.
type Store[P domain.Payload[P]] struct {
	labels  *labels.Registry
	entries *btree.BTreeG[*item[P]]
	build   domain.Builder[P]
}

// New returns an empty store whose entries are built with build
func New[P domain.Payload[P]](build domain.Builder[P]) *Store[P] {
	return &Store[P]{
		labels:  labels.NewRegistry(),
		entries: btree.NewG[*item[P]](btreeDegree, lessItem[P]),
		build:   build,
	}
}

// NewEvents returns an empty store of tagged events
func NewEvents() *Store[domain.Event] {
	return New[domain.Event](domain.NewEvent)
}

// NewCheckpoints returns an empty store of checkpoints filed under projects
func NewCheckpoints() *Store[domain.Checkpoint] {
	return New[domain.Checkpoint](domain.NewCheckpoint)
}

// AddLabel registers a label
func (s *Store[P]) AddLabel(longName, shortName string) (domain.LabelID, error) {
	return s.labels.Add(longName, shortName)
}

// RemoveLabel deletes a label and strips it from every entry referencing it
func (s *Store[P]) RemoveLabel(shortName string) error {
	id, err := s.labels.Remove(shortName)
	if err != nil {
		return err
	}

	removed := []domain.LabelID{id}
	s.entries.Ascend(func(it *item[P]) bool {
		it.entry = it.entry.WithoutLabels(removed)
		return true
	})
	return nil
}

// LabelID returns the id registered under shortName
func (s *Store[P]) LabelID(shortName string) (domain.LabelID, bool) {
	return s.labels.LookupID(shortName)
}

// Label returns the label with the given id
func (s *Store[P]) Label(id domain.LabelID) (domain.Label, bool) {
	return s.labels.Get(id)
}

// Labels yields every label in ascending id order
func (s *Store[P]) Labels() iter.Seq2[domain.LabelID, domain.Label] {
	return s.labels.All()
}

// AddEntry stores an entry at ts, replacing any entry already there.
// Every label short name must exist; otherwise nothing is stored.
func (s *Store[P]) AddEntry(ts int64, text string, labelNames []string) error {
	ids, err := s.labels.Resolve(labelNames)
	if err != nil {
		return err
	}
	entry, err := s.build(text, ids)
	if err != nil {
		return err
	}
	s.entries.ReplaceOrInsert(&item[P]{ts: ts, entry: entry})
	return nil
}

// RemoveEntry deletes and returns the entry id resolves to
func (s *Store[P]) RemoveEntry(id domain.EntryID) (P, bool) {
	ts, ok := s.Timestamp(id)
	if !ok {
		var zero P
		return zero, false
	}
	it, _ := s.entries.Delete(&item[P]{ts: ts})
	return it.entry, true
}

// GetEntry returns the entry id resolves to
func (s *Store[P]) GetEntry(id domain.EntryID) (P, bool) {
	it, ok := s.lookup(id)
	if !ok {
		var zero P
		return zero, false
	}
	return detach(it.entry), true
}

// AddLabelsToEntry attaches labels to an existing entry. Names are resolved
// before anything changes.
func (s *Store[P]) AddLabelsToEntry(id domain.EntryID, labelNames []string) error {
	ids, err := s.labels.Resolve(labelNames)
	if err != nil {
		return err
	}
	it, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: no entry %s", domain.ErrInvalidInput, id)
	}
	entry, err := it.entry.WithLabels(ids)
	if err != nil {
		return err
	}
	it.entry = entry
	return nil
}

// RemoveLabelsFromEntry detaches labels from an existing entry. Labels the
// entry does not carry are ignored.
func (s *Store[P]) RemoveLabelsFromEntry(id domain.EntryID, labelNames []string) error {
	ids, err := s.labels.Resolve(labelNames)
	if err != nil {
		return err
	}
	it, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: no entry %s", domain.ErrInvalidInput, id)
	}
	it.entry = it.entry.WithoutLabels(ids)
	return nil
}

// Len returns the number of entries
func (s *Store[P]) Len() int {
	return s.entries.Len()
}

// Entries yields entries in ascending timestamp order
func (s *Store[P]) Entries() iter.Seq2[int64, P] {
	return func(yield func(int64, P) bool) {
		s.entries.Ascend(func(it *item[P]) bool {
			return yield(it.ts, detach(it.entry))
		})
	}
}

// lookup is the mutable access path: the returned item is owned by the tree.
func (s *Store[P]) lookup(id domain.EntryID) (*item[P], bool) {
	ts, ok := s.Timestamp(id)
	if !ok {
		return nil, false
	}
	return s.entries.Get(&item[P]{ts: ts})
}

// detach returns a copy of p sharing no backing arrays with the stored entry
func detach[P domain.Payload[P]](p P) P {
	return p.WithoutLabels(nil)
}
