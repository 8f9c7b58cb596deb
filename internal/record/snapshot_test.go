package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/journal/internal/domain"
)

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.AddEntry(100, "A", []string{"zro", "frs"}))
	require.NoError(t, s.AddEntry(200, "B", nil))

	snap := s.Snapshot()
	assert.Len(t, snap.Labels, 3)
	assert.Len(t, snap.Entries, 2)

	restored, err := Restore(snap, domain.NewEvent)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(snap, restored.Snapshot()))

	id, err := restored.AddLabel("Third", "thr")
	require.NoError(t, err)
	assert.Equal(t, domain.LabelID(3), id)
}

func TestSnapshot_RestoreNormalizesEntries(t *testing.T) {
	snap := Snapshot[domain.Event]{
		Labels: map[domain.LabelID]domain.Label{
			0: {LongName: "Zero", ShortName: "z"},
			1: {LongName: "One", ShortName: "o"},
		},
		Entries: map[int64]domain.Event{
			5: {Description: "x", LabelIDs: []domain.LabelID{1, 0, 1}},
			6: {Description: "y"},
		},
	}

	s, err := Restore(snap, domain.NewEvent)
	require.NoError(t, err)
	assert.Equal(t, []domain.LabelID{0, 1}, mustEntry(t, s, domain.ByTimestamp(5)).LabelIDs)
	assert.NotNil(t, mustEntry(t, s, domain.ByTimestamp(6)).LabelIDs)
}

func TestSnapshot_RestoreRejectsDanglingLabel(t *testing.T) {
	snap := Snapshot[domain.Event]{
		Labels: map[domain.LabelID]domain.Label{0: {LongName: "Zero", ShortName: "z"}},
		Entries: map[int64]domain.Event{
			5: {Description: "x", LabelIDs: []domain.LabelID{0, 3}},
		},
	}

	_, err := Restore(snap, domain.NewEvent)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSnapshot_RestoreCheckpoints(t *testing.T) {
	snap := Snapshot[domain.Checkpoint]{
		Labels: map[domain.LabelID]domain.Label{2: {LongName: "Proj", ShortName: "p"}},
		Entries: map[int64]domain.Checkpoint{
			1: {Message: "a", Category: domain.SomeCategory(2)},
			2: {Message: "b", Category: domain.NoCategory},
		},
	}

	s, err := Restore(snap, domain.NewCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, snap, s.Snapshot())

	snap.Entries[3] = domain.Checkpoint{Message: "c", Category: domain.SomeCategory(9)}
	_, err = Restore(snap, domain.NewCheckpoint)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
