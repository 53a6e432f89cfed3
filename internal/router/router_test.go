package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtlapenna/multi-agent-content-system/internal/agent"
	"github.com/jtlapenna/multi-agent-content-system/internal/notify"
	"github.com/jtlapenna/multi-agent-content-system/internal/store"
	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type routerFixture struct {
	router   *Router
	store    store.Store
	notifier *notify.ChannelNotifier
	wsRoot   string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "state"), discardLogger())
	require.NoError(t, err)

	wsRoot := filepath.Join(t.TempDir(), "posts")
	ws, err := agent.NewWorkspace(wsRoot)
	require.NoError(t, err)

	n := notify.NewChannelNotifier(16)
	return &routerFixture{
		router:   New(st, workflow.DefaultGraph(), n, ws, discardLogger()),
		store:    st,
		notifier: n,
		wsRoot:   wsRoot,
	}
}

func (f *routerFixture) waitHandoff(t *testing.T) notify.Handoff {
	t.Helper()
	select {
	case h := <-f.notifier.C():
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hand-off")
		return notify.Handoff{}
	}
}

func TestCreateNewWorkflow(t *testing.T) {
	f := newRouterFixture(t)

	rec, err := f.router.CreateNewWorkflow(context.Background(), "Best Gifts for Coffee Lovers", nil)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-best-gifts-for-coffee-lovers$`), rec.PostID)
	assert.Equal(t, workflow.PhaseInitialized, rec.CurrentPhase)
	assert.Equal(t, workflow.AgentSEO, rec.NextAgent)
	assert.Equal(t, workflow.StatusInProgress, rec.Status)
	assert.Empty(t, rec.AgentsRun)

	// artifact directory scaffolded before the record persisted
	info, err := os.Stat(filepath.Join(f.wsRoot, rec.PostID, "images"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	h := f.waitHandoff(t)
	assert.Equal(t, workflow.AgentSEO, h.Agent)
	assert.Equal(t, rec.PostID, h.PostID)
}

func TestCreateNewWorkflowDuplicateTopicSameDay(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	_, err := f.router.CreateNewWorkflow(ctx, "Repeat Topic", nil)
	require.NoError(t, err)

	_, err = f.router.CreateNewWorkflow(ctx, "Repeat Topic", nil)
	assert.True(t, types.IsAlreadyExists(err))

	// an explicit suffix disambiguates
	rec, err := f.router.CreateNewWorkflow(ctx, "Repeat Topic", map[string]string{"slug_suffix": "v2"})
	require.NoError(t, err)
	assert.Contains(t, rec.PostID, "repeat-topic-v2")
}

func TestFindNextWorkClaimsOnlyMatchingAgent(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	created, err := f.router.CreateNewWorkflow(ctx, "Claiming Semantics", nil)
	require.NoError(t, err)

	got, err := f.router.FindNextWork(ctx, workflow.AgentSEO, workflow.PhaseInitialized)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.PostID, got.PostID)

	// downstream agent sees nothing yet
	got, err = f.router.FindNextWork(ctx, workflow.AgentBlog, workflow.PhaseSEOComplete)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindNextWorkOldestFirst(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	older := workflow.NewRecord("2025-06-14-older", "Older", workflow.DefaultGraph().First(), nil)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	_, err := f.store.Create(ctx, older)
	require.NoError(t, err)

	newer := workflow.NewRecord("2025-06-15-newer", "Newer", workflow.DefaultGraph().First(), nil)
	_, err = f.store.Create(ctx, newer)
	require.NoError(t, err)

	got, err := f.router.FindNextWork(ctx, workflow.AgentSEO, workflow.PhaseInitialized)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-06-14-older", got.PostID)
}

func TestCompleteWorkAdvancesPhaseAndOwner(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	created, err := f.router.CreateNewWorkflow(ctx, "Advancing", nil)
	require.NoError(t, err)
	f.waitHandoff(t)

	updated, err := f.router.CompleteWork(ctx, CompleteRequest{
		PostID:    created.PostID,
		Agent:     workflow.AgentSEO,
		NextAgent: workflow.AgentBlog,
		NextPhase: workflow.PhaseSEOComplete,
		Outputs:   map[string]string{workflow.AgentSEO: "seo-results.json"},
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.PhaseSEOComplete, updated.CurrentPhase)
	assert.Equal(t, workflow.AgentBlog, updated.NextAgent)
	assert.Equal(t, workflow.StatusInProgress, updated.Status)
	assert.Equal(t, []string{workflow.AgentSEO}, updated.AgentsRun)
	assert.Equal(t, "seo-results.json", updated.AgentOutputs[workflow.AgentSEO])

	h := f.waitHandoff(t)
	assert.Equal(t, workflow.AgentBlog, h.Agent)
	assert.Equal(t, workflow.PhaseSEOComplete, h.Phase)

	// the previous owner cannot complete the same record again
	_, err = f.router.CompleteWork(ctx, CompleteRequest{
		PostID:    created.PostID,
		Agent:     workflow.AgentSEO,
		NextAgent: workflow.AgentBlog,
		NextPhase: workflow.PhaseSEOComplete,
	})
	assert.True(t, types.IsNotOwner(err))
}

func TestCompleteWorkTerminalPhase(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	rec := workflow.NewRecord("2025-06-15-finishing", "Finishing", workflow.Step{
		Phase: workflow.PhaseImageComplete,
		Agent: workflow.AgentPublishing,
	}, nil)
	_, err := f.store.Create(ctx, rec)
	require.NoError(t, err)

	updated, err := f.router.CompleteWork(ctx, CompleteRequest{
		PostID:    rec.PostID,
		Agent:     workflow.AgentPublishing,
		NextPhase: workflow.PhasePublishingComplete,
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusCompleted, updated.Status)
	assert.Empty(t, updated.NextAgent)
	assert.Equal(t, workflow.PhasePublishingComplete, updated.CurrentPhase)

	// no hand-off after the terminal transition
	select {
	case h := <-f.notifier.C():
		t.Fatalf("unexpected hand-off to %s", h.Agent)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCompleteWorkRejectsUnknownPhase(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	created, err := f.router.CreateNewWorkflow(ctx, "Phase Checking", nil)
	require.NoError(t, err)

	_, err = f.router.CompleteWork(ctx, CompleteRequest{
		PostID:    created.PostID,
		Agent:     workflow.AgentSEO,
		NextAgent: workflow.AgentBlog,
		NextPhase: workflow.Phase("NOT_A_PHASE"),
	})
	assert.True(t, types.IsUnknownPhase(err))
}

func TestReportErrorFreezesRecord(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	created, err := f.router.CreateNewWorkflow(ctx, "Failing Topic", nil)
	require.NoError(t, err)

	updated, err := f.router.ReportError(ctx, created.PostID, workflow.AgentSEO, errors.New("keyword service unreachable"))
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusError, updated.Status)
	require.Len(t, updated.Errors, 1)
	assert.Equal(t, workflow.AgentSEO, updated.Errors[0].Agent)
	assert.Equal(t, "keyword service unreachable", updated.Errors[0].Message)
	assert.False(t, updated.Errors[0].ID.IsZero())

	// frozen records are invisible to FindNextWork
	got, err := f.router.FindNextWork(ctx, workflow.AgentSEO, workflow.PhaseInitialized)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResetRestoresRouting(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	created, err := f.router.CreateNewWorkflow(ctx, "Recovering Topic", nil)
	require.NoError(t, err)
	f.waitHandoff(t)

	_, err = f.router.ReportError(ctx, created.PostID, workflow.AgentSEO, errors.New("boom"))
	require.NoError(t, err)

	updated, err := f.router.Reset(ctx, created.PostID, workflow.AgentSEO)
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusInProgress, updated.Status)
	assert.Equal(t, workflow.AgentSEO, updated.NextAgent)
	assert.Equal(t, workflow.PhaseInitialized, updated.CurrentPhase)
	require.Len(t, updated.Errors, 1, "error history survives the reset")

	got, err := f.router.FindNextWork(ctx, workflow.AgentSEO, workflow.PhaseInitialized)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.PostID, got.PostID)
}

func TestResetRejectsUnknownAgent(t *testing.T) {
	f := newRouterFixture(t)

	_, err := f.router.Reset(context.Background(), "2025-06-15-whatever", "GhostAgent")
	assert.True(t, types.IsValidation(err))
}
