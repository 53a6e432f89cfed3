package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

func pipelineFixture(t *testing.T) (*Workspace, *workflow.Record) {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	rec := workflow.NewRecord("2025-06-15-coffee", "Best Coffee Grinders", workflow.DefaultGraph().First(), map[string]string{
		"primary_keyword": "coffee grinders",
	})
	return ws, rec
}

func TestDefaultExecutorsCoverTheGraph(t *testing.T) {
	ws, _ := pipelineFixture(t)
	execs := DefaultExecutors(ws, nil)

	_, err := NewRegistry(workflow.DefaultGraph(), execs)
	require.NoError(t, err)
}

func TestSEOExecutorWritesResearch(t *testing.T) {
	ws, rec := pipelineFixture(t)
	e := &SEOExecutor{ws: ws, logger: discardLogger()}

	res, err := e.Execute(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, ArtifactSEOResults, res.Outputs[workflow.AgentSEO])

	dir, err := ws.Dir(rec.PostID)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, ArtifactSEOResults))
	require.NoError(t, err)

	var research map[string]any
	require.NoError(t, json.Unmarshal(data, &research))
	assert.Equal(t, "coffee grinders", research["primary_keyword"])
}

func TestBlogExecutorWritesFrontmatter(t *testing.T) {
	ws, rec := pipelineFixture(t)
	e := &BlogExecutor{ws: ws, logger: discardLogger()}

	_, err := e.Execute(context.Background(), rec)
	require.NoError(t, err)

	dir, err := ws.Dir(rec.PostID)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, ArtifactBlogDraft))
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "title: "+rec.Topic)
	assert.Contains(t, content, "slug: "+rec.PostID)
	assert.Contains(t, content, "keyword: coffee grinders")
	assert.Contains(t, content, "# "+rec.Topic)
}

func TestReviewExecutorNeedsUpstreamDraft(t *testing.T) {
	ws, rec := pipelineFixture(t)
	e := &ReviewExecutor{ws: ws, logger: discardLogger()}

	_, err := e.Execute(context.Background(), rec)
	assert.Error(t, err, "review without a draft must fail")
}

func TestPipelineExecutorsChainThroughArtifacts(t *testing.T) {
	ws, rec := pipelineFixture(t)
	ctx := context.Background()

	for _, e := range DefaultExecutors(ws, discardLogger()) {
		res, err := e.Execute(ctx, rec)
		require.NoError(t, err, "executor %s", e.Name())
		require.NotEmpty(t, res.Outputs[e.Name()])
		// record accumulates outputs the way the router would persist them
		if rec.AgentOutputs == nil {
			rec.AgentOutputs = map[string]string{}
		}
		for k, v := range res.Outputs {
			rec.AgentOutputs[k] = v
		}
	}

	dir, err := ws.Dir(rec.PostID)
	require.NoError(t, err)
	for _, name := range []string{
		ArtifactSEOResults, ArtifactBlogDraft, ArtifactBlogFinal,
		ArtifactImageManifest, ArtifactPublishManifest,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "artifact %s", name)
	}
}
