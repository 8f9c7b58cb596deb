package domain

import (
	"fmt"
	"slices"
)

// LabelID identifies a label inside one store
type LabelID uint32

// Label represents a tag or project an entry can be filed under
type Label struct {
	LongName  string `json:"long_name"`
	ShortName string `json:"short_name"`
}

// Payload is the contract every entry flavor implements. Methods return
// modified copies so entries stored by value are never aliased.
type Payload[P any] interface {
	Text() string
	Labels() []LabelID
	WithLabels(ids []LabelID) (P, error)
	WithoutLabels(ids []LabelID) P
}

// Builder constructs a payload from its text and resolved label ids
type Builder[P any] func(text string, ids []LabelID) (P, error)

// Event is a log entry carrying any number of tags
type Event struct {
	Description string    `json:"description"`
	LabelIDs    []LabelID `json:"label_ids"`
}

// NewEvent builds an Event with a normalized tag set
func NewEvent(description string, ids []LabelID) (Event, error) {
	return Event{Description: description, LabelIDs: NormalizeIDs(ids)}, nil
}

func (e Event) Text() string { return e.Description }

func (e Event) Labels() []LabelID { return slices.Clone(e.LabelIDs) }

// WithLabels returns a copy of e tagged with the union of its tags and ids
func (e Event) WithLabels(ids []LabelID) (Event, error) {
	merged := append(slices.Clone(e.LabelIDs), ids...)
	return Event{Description: e.Description, LabelIDs: NormalizeIDs(merged)}, nil
}

// WithoutLabels returns a copy of e with ids removed from its tags
func (e Event) WithoutLabels(ids []LabelID) Event {
	kept := make([]LabelID, 0, len(e.LabelIDs))
	for _, id := range e.LabelIDs {
		if !slices.Contains(ids, id) {
			kept = append(kept, id)
		}
	}
	return Event{Description: e.Description, LabelIDs: kept}
}

// Checkpoint is a log entry filed under at most one project
type Checkpoint struct {
	Message  string   `json:"message"`
	Category Category `json:"category"`
}

// NewCheckpoint builds a Checkpoint. More than one id is rejected.
func NewCheckpoint(message string, ids []LabelID) (Checkpoint, error) {
	ids = NormalizeIDs(ids)
	switch len(ids) {
	case 0:
		return Checkpoint{Message: message, Category: NoCategory}, nil
	case 1:
		return Checkpoint{Message: message, Category: SomeCategory(ids[0])}, nil
	default:
		return Checkpoint{}, fmt.Errorf("%w: checkpoint takes one category, got %d", ErrInvalidInput, len(ids))
	}
}

func (c Checkpoint) Text() string { return c.Message }

func (c Checkpoint) Labels() []LabelID {
	if id, ok := c.Category.Get(); ok {
		return []LabelID{id}
	}
	return []LabelID{}
}

// WithLabels files c under the single id given, replacing any previous category
func (c Checkpoint) WithLabels(ids []LabelID) (Checkpoint, error) {
	ids = NormalizeIDs(ids)
	switch len(ids) {
	case 0:
		return c, nil
	case 1:
		return Checkpoint{Message: c.Message, Category: SomeCategory(ids[0])}, nil
	default:
		return c, fmt.Errorf("%w: checkpoint takes one category, got %d", ErrInvalidInput, len(ids))
	}
}

// WithoutLabels clears the category when it is one of ids
func (c Checkpoint) WithoutLabels(ids []LabelID) Checkpoint {
	if id, ok := c.Category.Get(); ok && slices.Contains(ids, id) {
		return Checkpoint{Message: c.Message, Category: NoCategory}
	}
	return c
}

// LogRecord is a read-only view of an entry with its derived fields
type LogRecord[P any] struct {
	Timestamp int64  `json:"timestamp"`
	Entry     P      `json:"entry"`
	Duration  *int64 `json:"duration,omitempty"`
	Position  int    `json:"position"`
}

// NormalizeIDs sorts and deduplicates ids. The result is never nil.
func NormalizeIDs(ids []LabelID) []LabelID {
	out := make([]LabelID, len(ids))
	copy(out, ids)
	slices.Sort(out)
	return slices.Compact(out)
}
