package journal

import (
	"context"
	"fmt"

	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/record"
	"github.com/pbaille/journal/internal/store"
)

// ledger hides the payload type of a record store behind flavor-neutral views
type ledger interface {
	addLabel(longName, shortName string) (domain.LabelID, error)
	removeLabel(shortName string) error
	labels() []LabelView
	addEntry(ts int64, text string, labelNames []string) error
	removeEntry(id domain.EntryID) (EntryView, bool)
	entry(id domain.EntryID) (EntryView, bool)
	tag(id domain.EntryID, labelNames []string) error
	untag(id domain.EntryID, labelNames []string) error
	log(limit int) []EntryView
	between(start, end int64) []EntryView
	len() int
	save(ctx context.Context) error
	// checkpoint captures the current state; calling the returned func
	// puts it back
	checkpoint() func() error
	close() error
}

type typedLedger[P domain.Payload[P]] struct {
	store   *record.Store[P]
	backend store.Backend[P]
	build   domain.Builder[P]
}

func openLedger[P domain.Payload[P]](ctx context.Context, b store.Backend[P], build domain.Builder[P]) (*typedLedger[P], error) {
	s, err := store.LoadOrInit(ctx, b, build)
	if err != nil {
		return nil, err
	}
	return &typedLedger[P]{store: s, backend: b, build: build}, nil
}

func (l *typedLedger[P]) addLabel(longName, shortName string) (domain.LabelID, error) {
	return l.store.AddLabel(longName, shortName)
}

func (l *typedLedger[P]) removeLabel(shortName string) error {
	return l.store.RemoveLabel(shortName)
}

func (l *typedLedger[P]) labels() []LabelView {
	out := make([]LabelView, 0)
	for id, lb := range l.store.Labels() {
		out = append(out, LabelView{ID: id, ShortName: lb.ShortName, LongName: lb.LongName})
	}
	return out
}

func (l *typedLedger[P]) addEntry(ts int64, text string, labelNames []string) error {
	return l.store.AddEntry(ts, text, labelNames)
}

func (l *typedLedger[P]) removeEntry(id domain.EntryID) (EntryView, bool) {
	v, ok := l.entry(id)
	if !ok {
		return EntryView{}, false
	}
	l.store.RemoveEntry(domain.ByTimestamp(v.Timestamp))
	return v, true
}

func (l *typedLedger[P]) entry(id domain.EntryID) (EntryView, bool) {
	ts, ok := l.store.Timestamp(id)
	if !ok {
		return EntryView{}, false
	}
	byTS := domain.ByTimestamp(ts)
	e, _ := l.store.GetEntry(byTS)
	pos, _ := l.store.Position(byTS)

	r := domain.LogRecord[P]{Timestamp: ts, Entry: e, Position: pos}
	if d, ok := l.store.Duration(byTS); ok {
		r.Duration = &d
	}
	return l.view(r), true
}

func (l *typedLedger[P]) tag(id domain.EntryID, labelNames []string) error {
	return l.store.AddLabelsToEntry(id, labelNames)
}

func (l *typedLedger[P]) untag(id domain.EntryID, labelNames []string) error {
	return l.store.RemoveLabelsFromEntry(id, labelNames)
}

func (l *typedLedger[P]) log(limit int) []EntryView {
	return l.views(l.store.Log(limit))
}

func (l *typedLedger[P]) between(start, end int64) []EntryView {
	return l.views(l.store.LogBetween(start, end))
}

func (l *typedLedger[P]) len() int {
	return l.store.Len()
}

func (l *typedLedger[P]) save(ctx context.Context) error {
	return store.Save(ctx, l.backend, l.store)
}

func (l *typedLedger[P]) checkpoint() func() error {
	snap := l.store.Snapshot()
	return func() error {
		s, err := record.Restore(snap, l.build)
		if err != nil {
			return fmt.Errorf("roll back: %w", err)
		}
		l.store = s
		return nil
	}
}

func (l *typedLedger[P]) close() error {
	return l.backend.Close()
}

func (l *typedLedger[P]) views(records []domain.LogRecord[P]) []EntryView {
	out := make([]EntryView, 0, len(records))
	for _, r := range records {
		out = append(out, l.view(r))
	}
	return out
}

func (l *typedLedger[P]) view(r domain.LogRecord[P]) EntryView {
	names := make([]string, 0)
	for _, id := range r.Entry.Labels() {
		if lb, ok := l.store.Label(id); ok {
			names = append(names, lb.ShortName)
		}
	}
	return EntryView{
		Timestamp: r.Timestamp,
		Position:  r.Position,
		Text:      r.Entry.Text(),
		Labels:    names,
		Duration:  r.Duration,
	}
}
