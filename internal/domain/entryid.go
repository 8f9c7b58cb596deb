package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type idKind uint8

const (
	kindTimestamp idKind = iota + 1
	kindPosition
)

// EntryID addresses an entry either by its timestamp or by its position,
// where position 0 is the most recent entry. A position is only meaningful
// against the store it is resolved in.
type EntryID struct {
	kind  idKind
	value int64
}

// ByTimestamp addresses the entry stored at ts
func ByTimestamp(ts int64) EntryID {
	return EntryID{kind: kindTimestamp, value: ts}
}

// ByPosition addresses the p-th most recent entry
func ByPosition(p int) EntryID {
	return EntryID{kind: kindPosition, value: int64(p)}
}

// Timestamp returns the timestamp if id was built with ByTimestamp
func (id EntryID) Timestamp() (int64, bool) {
	return id.value, id.kind == kindTimestamp
}

// Position returns the position if id was built with ByPosition
func (id EntryID) Position() (int, bool) {
	return int(id.value), id.kind == kindPosition
}

// String renders timestamps as "@<unix>" and positions as "#<n>"
func (id EntryID) String() string {
	switch id.kind {
	case kindTimestamp:
		return "@" + strconv.FormatInt(id.value, 10)
	case kindPosition:
		return "#" + strconv.FormatInt(id.value, 10)
	default:
		return "<invalid>"
	}
}

// ParseEntryID reads "@<unix>" as a timestamp and "<n>" or "#<n>" as a position
func ParseEntryID(s string) (EntryID, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "@"); ok {
		ts, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return EntryID{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidInput, s)
		}
		return ByTimestamp(ts), nil
	}

	p, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || p < 0 {
		return EntryID{}, fmt.Errorf("%w: bad entry id %q", ErrInvalidInput, s)
	}
	return ByPosition(p), nil
}
