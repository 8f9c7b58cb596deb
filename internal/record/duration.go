package record

import "github.com/pbaille/journal/internal/domain"

// Duration returns the time elapsed between the entry id resolves to and its
// chronological predecessor. The oldest entry has no duration.
func (s *Store[P]) Duration(id domain.EntryID) (int64, bool) {
	ts, ok := s.Timestamp(id)
	if !ok {
		return 0, false
	}
	p, _ := s.Position(domain.ByTimestamp(ts))
	prev, ok := s.Timestamp(domain.ByPosition(p + 1))
	if !ok {
		return 0, false
	}
	return ts - prev, true
}

// LogBetween returns the entries strictly between start and end, newest
// first. The bounds may be given in either order.
func (s *Store[P]) LogBetween(start, end int64) []domain.LogRecord[P] {
	lo, hi := min(start, end), max(start, end)

	out := make([]domain.LogRecord[P], 0)
	s.walk(func(r domain.LogRecord[P]) bool {
		if r.Timestamp >= hi {
			return true
		}
		if r.Timestamp <= lo {
			return false
		}
		out = append(out, r)
		return true
	})
	return out
}

// Log returns the newest limit entries, or all of them when limit <= 0
func (s *Store[P]) Log(limit int) []domain.LogRecord[P] {
	out := make([]domain.LogRecord[P], 0)
	s.walk(func(r domain.LogRecord[P]) bool {
		out = append(out, r)
		return limit <= 0 || len(out) < limit
	})
	return out
}

// walk yields a record per entry, newest first, until fn returns false.
// Each record is held back until the next older entry supplies its duration.
func (s *Store[P]) walk(fn func(domain.LogRecord[P]) bool) {
	var (
		pending *item[P]
		pos     int
		stopped bool
	)
	emit := func(it *item[P], duration *int64) bool {
		r := domain.LogRecord[P]{
			Timestamp: it.ts,
			Entry:     detach(it.entry),
			Duration:  duration,
			Position:  pos,
		}
		pos++
		return fn(r)
	}

	s.entries.Descend(func(it *item[P]) bool {
		if pending != nil {
			d := pending.ts - it.ts
			if !emit(pending, &d) {
				stopped = true
				return false
			}
		}
		pending = it
		return true
	})
	if pending != nil && !stopped {
		emit(pending, nil)
	}
}
