// Package store persists record store snapshots.
//
// Two backends implement the same contract: JSONFile keeps the whole store in
// one pretty-printed JSON document, SQLite keeps it in a database file. Both
// save whole snapshots; a save replaces everything the previous one wrote.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/record"
)

// ErrNotFound is returned by Load when nothing has been saved yet
var ErrNotFound = errors.New("snapshot not found")

// Backend loads and saves whole snapshots
type Backend[P any] interface {
	Load(ctx context.Context) (record.Snapshot[P], error)
	Save(ctx context.Context, snap record.Snapshot[P]) error
	Close() error
}

// LoadOrInit loads the store saved in b. When b holds nothing yet, an empty
// store is created and saved so the next load finds it.
func LoadOrInit[P domain.Payload[P]](ctx context.Context, b Backend[P], build domain.Builder[P]) (*record.Store[P], error) {
	snap, err := b.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		s := record.New[P](build)
		if err := Save(ctx, b, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	s, err := record.Restore(snap, build)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	return s, nil
}

// Save writes a snapshot of s to b
func Save[P domain.Payload[P]](ctx context.Context, b Backend[P], s *record.Store[P]) error {
	return b.Save(ctx, s.Snapshot())
}
