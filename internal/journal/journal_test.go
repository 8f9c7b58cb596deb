package journal

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/journal/internal/config"
	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/logging"
)

func testConfig(t *testing.T, backend, flavor string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = backend
	cfg.Flavor = flavor
	cfg.DataPath = filepath.Join(t.TempDir(), "data", "journal."+backend)
	return cfg
}

func createTestJournal(t *testing.T, cfg config.Config) *Journal {
	t.Helper()
	j, err := Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_PersistsEveryMutation(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend, config.FlavorEvents)

			j, err := Open(ctx, cfg, logging.Discard())
			require.NoError(t, err)

			_, err = j.AddLabel(ctx, "Work", "wrk")
			require.NoError(t, err)
			_, err = j.AddLabel(ctx, "Home", "hom")
			require.NoError(t, err)
			require.NoError(t, j.AddEntry(ctx, 100, "start", []string{"wrk"}))
			require.NoError(t, j.AddEntry(ctx, 160, "lunch", []string{"hom"}))
			require.NoError(t, j.Tag(ctx, domain.ByPosition(0), []string{"wrk"}))
			require.NoError(t, j.Untag(ctx, domain.ByTimestamp(100), []string{"wrk"}))
			require.NoError(t, j.Close())

			reopened := createTestJournal(t, cfg)
			assert.Len(t, reopened.Labels(ctx), 2)

			log := reopened.Log(ctx, 0)
			require.Len(t, log, 2)
			assert.Equal(t, EntryView{
				Timestamp: 160,
				Position:  0,
				Text:      "lunch",
				Labels:    []string{"wrk", "hom"},
				Duration:  int64p(60),
			}, log[0])
			assert.Equal(t, EntryView{
				Timestamp: 100,
				Position:  1,
				Text:      "start",
				Labels:    []string{},
			}, log[1])
		})
	}
}

func int64p(v int64) *int64 { return &v }

func TestJournal_RejectedMutationIsNotSaved(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendJSON, config.FlavorEvents)
	j := createTestJournal(t, cfg)

	require.NoError(t, j.AddEntry(ctx, 1, "ok", nil))
	err := j.AddEntry(ctx, 2, "bad", []string{"missing"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = j.AddLabel(ctx, "", "x")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	reopened := createTestJournal(t, cfg)
	assert.Len(t, reopened.Log(ctx, 0), 1)
	assert.Empty(t, reopened.Labels(ctx))
}

func TestJournal_RemoveEntry(t *testing.T) {
	ctx := context.Background()
	j := createTestJournal(t, testConfig(t, config.BackendJSON, config.FlavorEvents))

	require.NoError(t, j.AddEntry(ctx, 10, "a", nil))
	require.NoError(t, j.AddEntry(ctx, 20, "b", nil))

	v, ok, err := j.RemoveEntry(ctx, domain.ByPosition(0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(20), v.Timestamp)
	assert.Equal(t, int64p(10), v.Duration)

	_, ok, err = j.RemoveEntry(ctx, domain.ByTimestamp(20))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJournal_RemoveLabelCascades(t *testing.T) {
	ctx := context.Background()
	j := createTestJournal(t, testConfig(t, config.BackendJSON, config.FlavorEvents))

	_, err := j.AddLabel(ctx, "Second", "scn")
	require.NoError(t, err)
	require.NoError(t, j.AddEntry(ctx, 10, "a", []string{"scn"}))
	require.NoError(t, j.RemoveLabel(ctx, "scn"))

	v, ok := j.Entry(ctx, domain.ByTimestamp(10))
	require.True(t, ok)
	assert.Empty(t, v.Labels)

	require.ErrorIs(t, j.RemoveLabel(ctx, "scn"), domain.ErrInvalidInput)
}

func TestJournal_Checkpoints(t *testing.T) {
	ctx := context.Background()
	j := createTestJournal(t, testConfig(t, config.BackendSQLite, config.FlavorCheckpoints))

	_, err := j.AddLabel(ctx, "Project A", "pa")
	require.NoError(t, err)
	_, err = j.AddLabel(ctx, "Project B", "pb")
	require.NoError(t, err)

	require.NoError(t, j.AddEntry(ctx, 10, "begin", []string{"pa"}))
	require.ErrorIs(t, j.AddEntry(ctx, 20, "both", []string{"pa", "pb"}), domain.ErrInvalidInput)
	require.NoError(t, j.AddEntry(ctx, 30, "switch", []string{"pb"}))

	got := j.Between(ctx, 0, 100)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"pb"}, got[0].Labels)
	assert.Equal(t, int64p(20), got[0].Duration)
	assert.Equal(t, []string{"pa"}, got[1].Labels)
}

func TestJournal_LogsMutations(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	j, err := Open(ctx, testConfig(t, config.BackendJSON, config.FlavorEvents), logging.New(&buf, slog.LevelInfo))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	require.NoError(t, j.AddEntry(ctx, 5, "x", nil))
	_ = j.AddEntry(ctx, 6, "y", []string{"nope"})

	out := buf.String()
	assert.Contains(t, out, `msg="entry added"`)
	assert.Contains(t, out, "ts=5")
	assert.Contains(t, out, `msg="entry added rejected"`)
	assert.Contains(t, out, "backend=json")
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, "postgres", config.FlavorEvents)
	_, err := Open(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}

// breakDataDir replaces the data directory with a plain file so saves fail
func breakDataDir(t *testing.T, cfg config.Config) func() {
	t.Helper()
	dir := filepath.Dir(cfg.DataPath)
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0o600))
	return func() {
		require.NoError(t, os.Remove(dir))
	}
}

func TestJournal_FailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendJSON, config.FlavorEvents)
	j := createTestJournal(t, cfg)

	_, err := j.AddLabel(ctx, "Work", "wrk")
	require.NoError(t, err)
	require.NoError(t, j.AddEntry(ctx, 10, "kept", []string{"wrk"}))

	repair := breakDataDir(t, cfg)

	err = j.AddEntry(ctx, 42, "lost", nil)
	require.Error(t, err)
	_, found := j.Entry(ctx, domain.ByTimestamp(42))
	assert.False(t, found)

	require.Error(t, j.RemoveLabel(ctx, "wrk"))
	assert.Len(t, j.Labels(ctx), 1)
	v, found := j.Entry(ctx, domain.ByTimestamp(10))
	require.True(t, found)
	assert.Equal(t, []string{"wrk"}, v.Labels)

	_, found, err = j.RemoveEntry(ctx, domain.ByTimestamp(10))
	require.Error(t, err)
	assert.True(t, found)
	_, found = j.Entry(ctx, domain.ByTimestamp(10))
	assert.True(t, found)

	repair()
	require.NoError(t, j.AddEntry(ctx, 43, "after repair", nil))

	reopened := createTestJournal(t, cfg)
	log := reopened.Log(ctx, 0)
	require.Len(t, log, 2)
	assert.Equal(t, int64(43), log[0].Timestamp)
	assert.Equal(t, int64(10), log[1].Timestamp)
	assert.Equal(t, []string{"wrk"}, log[1].Labels)
}
