package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

func openTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "mirror"), nil)
	require.NoError(t, err)
	return s
}

func TestFileStoreCreateAndGet(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	rec := newTestRecord("2025-06-15-mirrored", time.Now())
	_, err := s.Create(ctx, rec)
	require.NoError(t, err)

	// one JSON document per post at a path derived from post_id
	_, err = os.Stat(filepath.Join(s.Dir(), "2025-06-15-mirrored.json"))
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.PostID)
	require.NoError(t, err)
	assert.Equal(t, rec.Topic, got.Topic)
	assert.Equal(t, workflow.PhaseInitialized, got.CurrentPhase)
	assert.Equal(t, []string{}, got.AgentsRun)
}

func TestFileStoreCreateDuplicateFails(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	rec := newTestRecord("2025-06-15-dupe", time.Now())
	_, err := s.Create(ctx, rec)
	require.NoError(t, err)

	_, err = s.Create(ctx, rec)
	assert.True(t, types.IsAlreadyExists(err))
}

func TestFileStoreGetMissing(t *testing.T) {
	s := openTestFileStore(t)

	_, err := s.Get(context.Background(), "2025-06-15-nope")
	assert.True(t, types.IsNotFound(err))
}

func TestFileStoreRejectsPathEscapes(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := s.Get(ctx, id)
		assert.True(t, types.IsValidation(err), "id %q: expected validation error, got %v", id, err)
	}
}

func TestFileStoreUpdate(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	rec := newTestRecord("2025-06-15-advancing", time.Now())
	_, err := s.Create(ctx, rec)
	require.NoError(t, err)

	phase := workflow.PhaseSEOComplete
	next := workflow.AgentBlog
	updated, err := s.Update(ctx, rec.PostID, workflow.Update{
		Phase:           &phase,
		NextAgent:       &next,
		AppendAgentsRun: []string{workflow.AgentSEO},
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseSEOComplete, updated.CurrentPhase)

	got, err := s.Get(ctx, rec.PostID)
	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseSEOComplete, got.CurrentPhase)
	assert.Equal(t, workflow.AgentBlog, got.NextAgent)
	assert.Equal(t, []string{workflow.AgentSEO}, got.AgentsRun)
}

func TestFileStoreUpdateMissing(t *testing.T) {
	s := openTestFileStore(t)

	st := workflow.StatusError
	_, err := s.Update(context.Background(), "2025-06-15-nope", workflow.Update{Status: &st})
	assert.True(t, types.IsNotFound(err))
}

func TestFileStoreListByPhaseAndAgentFIFO(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	_, err := s.Create(ctx, newTestRecord("2025-06-15-second", base.Add(10*time.Minute)))
	require.NoError(t, err)
	_, err = s.Create(ctx, newTestRecord("2025-06-15-first", base))
	require.NoError(t, err)

	frozen := newTestRecord("2025-06-15-frozen", base)
	frozen.Status = workflow.StatusError
	_, err = s.Create(ctx, frozen)
	require.NoError(t, err)

	records, err := s.ListByPhaseAndAgent(ctx, workflow.PhaseInitialized, workflow.AgentSEO)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-06-15-first", records[0].PostID)
	assert.Equal(t, "2025-06-15-second", records[1].PostID)
}

func TestFileStoreListAllSkipsCorruptDocuments(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, newTestRecord("2025-06-15-good", time.Now()))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "corrupt.json"), []byte("{not json"), 0o644))

	records, err := s.ListAll(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-06-15-good", records[0].PostID)
}

func TestFileStoreWriteLeavesNoTempFiles(t *testing.T) {
	s := openTestFileStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, newTestRecord("2025-06-15-clean", time.Now()))
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
