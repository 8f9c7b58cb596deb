// Package journal is the application layer between the front ends (CLI,
// HTTP API) and the record store. It opens the configured backend and flavor,
// applies one operation at a time and saves after every successful mutation.
package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbaille/journal/internal/config"
	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/logging"
	"github.com/pbaille/journal/internal/store"
)

// EntryView is an entry as shown to users, with label short names resolved
type EntryView struct {
	Timestamp int64    `json:"timestamp"`
	Position  int      `json:"position"`
	Text      string   `json:"text"`
	Labels    []string `json:"labels"`
	Duration  *int64   `json:"duration,omitempty"`
}

// LabelView is a label together with its id
type LabelView struct {
	ID        domain.LabelID `json:"id"`
	ShortName string         `json:"short_name"`
	LongName  string         `json:"long_name"`
}

// Journal serializes access to one record store and persists it
type Journal struct {
	mu     sync.Mutex
	ledger ledger
	log    logging.Logger
}

// Open loads the store described by cfg, creating an empty one if nothing
// has been saved yet
func Open(ctx context.Context, cfg config.Config, log logging.Logger) (*Journal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.With("backend", cfg.Backend, "flavor", cfg.Flavor)

	var (
		l   ledger
		err error
	)
	switch cfg.Flavor {
	case config.FlavorCheckpoints:
		l, err = openFlavor[domain.Checkpoint](ctx, cfg, domain.NewCheckpoint)
	default:
		l, err = openFlavor[domain.Event](ctx, cfg, domain.NewEvent)
	}
	if err != nil {
		log.Error(ctx, "open journal failed", "path", cfg.DataPath, "error", err)
		return nil, err
	}

	log.Debug(ctx, "journal opened", "path", cfg.DataPath, "entries", l.len())
	return &Journal{ledger: l, log: log}, nil
}

func openFlavor[P domain.Payload[P]](ctx context.Context, cfg config.Config, build domain.Builder[P]) (ledger, error) {
	var b store.Backend[P]
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite[P](cfg.DataPath)
		if err != nil {
			return nil, err
		}
		b = db
	default:
		b = store.NewJSONFile[P](cfg.DataPath)
	}

	l, err := openLedger(ctx, b, build)
	if err != nil {
		b.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the backend
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ledger.close()
}

// mutate runs fn and saves the store when fn succeeds. When the save fails
// the in-memory store is rolled back so it keeps matching what was persisted.
func (j *Journal) mutate(ctx context.Context, op string, fn func() error, args ...any) error {
	rollback := j.ledger.checkpoint()
	if err := fn(); err != nil {
		j.log.Warn(ctx, op+" rejected", append(args, "error", err)...)
		return err
	}
	if err := j.ledger.save(ctx); err != nil {
		j.log.Error(ctx, "save failed", "op", op, "error", err)
		if rbErr := rollback(); rbErr != nil {
			j.log.Error(ctx, "rollback failed", "op", op, "error", rbErr)
		}
		return fmt.Errorf("save after %s: %w", op, err)
	}
	j.log.Info(ctx, op, args...)
	return nil
}

// AddLabel registers a label
func (j *Journal) AddLabel(ctx context.Context, longName, shortName string) (domain.LabelID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var id domain.LabelID
	err := j.mutate(ctx, "label added", func() error {
		var err error
		id, err = j.ledger.addLabel(longName, shortName)
		return err
	}, "short_name", shortName)
	return id, err
}

// RemoveLabel deletes a label and strips it from every entry
func (j *Journal) RemoveLabel(ctx context.Context, shortName string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.mutate(ctx, "label removed", func() error {
		return j.ledger.removeLabel(shortName)
	}, "short_name", shortName)
}

// Labels lists every label by ascending id
func (j *Journal) Labels(ctx context.Context) []LabelView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ledger.labels()
}

// AddEntry stores an entry at ts, replacing any entry already there
func (j *Journal) AddEntry(ctx context.Context, ts int64, text string, labelNames []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.mutate(ctx, "entry added", func() error {
		return j.ledger.addEntry(ts, text, labelNames)
	}, "ts", ts, "labels", labelNames)
}

// RemoveEntry deletes the entry id resolves to and returns it as it was
// before removal. A missing entry is reported with false, not an error.
func (j *Journal) RemoveEntry(ctx context.Context, id domain.EntryID) (EntryView, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	v, found := j.ledger.entry(id)
	if !found {
		return EntryView{}, false, nil
	}
	err := j.mutate(ctx, "entry removed", func() error {
		j.ledger.removeEntry(domain.ByTimestamp(v.Timestamp))
		return nil
	}, "ts", v.Timestamp)
	return v, true, err
}

// Entry returns the entry id resolves to
func (j *Journal) Entry(ctx context.Context, id domain.EntryID) (EntryView, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ledger.entry(id)
}

// Tag attaches labels to an entry
func (j *Journal) Tag(ctx context.Context, id domain.EntryID, labelNames []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.mutate(ctx, "entry tagged", func() error {
		return j.ledger.tag(id, labelNames)
	}, "id", id.String(), "labels", labelNames)
}

// Untag detaches labels from an entry
func (j *Journal) Untag(ctx context.Context, id domain.EntryID, labelNames []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.mutate(ctx, "entry untagged", func() error {
		return j.ledger.untag(id, labelNames)
	}, "id", id.String(), "labels", labelNames)
}

// Log returns the newest limit entries, or all when limit <= 0
func (j *Journal) Log(ctx context.Context, limit int) []EntryView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ledger.log(limit)
}

// Between returns the entries strictly between two timestamps, newest first
func (j *Journal) Between(ctx context.Context, start, end int64) []EntryView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ledger.between(start, end)
}
