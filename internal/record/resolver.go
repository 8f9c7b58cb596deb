package record

import "github.com/pbaille/journal/internal/domain"

// Timestamp resolves id to the timestamp of an existing entry. Positions
// count from the newest entry, starting at 0.
func (s *Store[P]) Timestamp(id domain.EntryID) (int64, bool) {
	if ts, ok := id.Timestamp(); ok {
		return ts, s.entries.Has(&item[P]{ts: ts})
	}

	p, ok := id.Position()
	if !ok || p < 0 {
		return 0, false
	}
	var (
		ts    int64
		found bool
		n     int
	)
	s.entries.Descend(func(it *item[P]) bool {
		if n == p {
			ts, found = it.ts, true
			return false
		}
		n++
		return true
	})
	return ts, found
}

// Position resolves id to the rank of an existing entry in newest-first order
func (s *Store[P]) Position(id domain.EntryID) (int, bool) {
	if p, ok := id.Position(); ok {
		return p, p >= 0 && p < s.entries.Len()
	}

	ts, ok := id.Timestamp()
	if !ok {
		return 0, false
	}
	var (
		pos   int
		found bool
	)
	s.entries.Descend(func(it *item[P]) bool {
		if it.ts == ts {
			found = true
			return false
		}
		pos++
		return it.ts > ts
	})
	return pos, found
}

// Exists reports whether id resolves to an entry
func (s *Store[P]) Exists(id domain.EntryID) bool {
	_, ok := s.Timestamp(id)
	return ok
}
