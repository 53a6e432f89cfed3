package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// Artifact file names by convention. Downstream agents locate upstream
// artifacts by these names inside the post's directory.
const (
	ArtifactSEOResults      = "seo-results.json"
	ArtifactBlogDraft       = "blog-draft.md"
	ArtifactBlogFinal       = "blog-final.md"
	ArtifactImageManifest   = "images/image-manifest.json"
	ArtifactPublishManifest = "publish-manifest.json"
)

// The executors below are the in-tree stand-ins for the generation
// services: each writes its conventional artifact into the post's
// directory and reports the reference. Production deployments swap in
// executors that call the real LLM/image/publishing APIs behind the
// same Executor interface.

// DefaultExecutors returns the five pipeline executors backed by the
// given workspace.
func DefaultExecutors(ws *Workspace, logger *slog.Logger) []Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return []Executor{
		&SEOExecutor{ws: ws, logger: logger.With("agent", workflow.AgentSEO)},
		&BlogExecutor{ws: ws, logger: logger.With("agent", workflow.AgentBlog)},
		&ReviewExecutor{ws: ws, logger: logger.With("agent", workflow.AgentReview)},
		&ImageExecutor{ws: ws, logger: logger.With("agent", workflow.AgentImage)},
		&PublishingExecutor{ws: ws, logger: logger.With("agent", workflow.AgentPublishing)},
	}
}

// SEOExecutor produces the keyword research artifact.
type SEOExecutor struct {
	ws     *Workspace
	logger *slog.Logger
}

func (e *SEOExecutor) Name() string { return workflow.AgentSEO }

func (e *SEOExecutor) Execute(ctx context.Context, rec *workflow.Record) (*Result, error) {
	dir, err := e.ws.Scaffold(rec.PostID)
	if err != nil {
		return nil, err
	}

	keyword := rec.Metadata["primary_keyword"]
	if keyword == "" {
		keyword = rec.Topic
	}
	research := map[string]any{
		"topic":           rec.Topic,
		"primary_keyword": keyword,
		"audience":        rec.Metadata["audience"],
		"generated_at":    time.Now().UTC(),
	}
	if err := writeJSON(filepath.Join(dir, ArtifactSEOResults), research); err != nil {
		return nil, err
	}

	e.logger.Info("seo research written", "post_id", rec.PostID)
	return &Result{Outputs: map[string]string{e.Name(): ArtifactSEOResults}}, nil
}

// BlogExecutor produces the first draft from the SEO artifact.
type BlogExecutor struct {
	ws     *Workspace
	logger *slog.Logger
}

func (e *BlogExecutor) Name() string { return workflow.AgentBlog }

// frontmatter is the YAML header most static site generators expect at
// the top of a post.
type frontmatter struct {
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Date    string `yaml:"date"`
	Keyword string `yaml:"keyword,omitempty"`
	Draft   bool   `yaml:"draft"`
}

func (e *BlogExecutor) Execute(ctx context.Context, rec *workflow.Record) (*Result, error) {
	dir, err := e.ws.Scaffold(rec.PostID)
	if err != nil {
		return nil, err
	}

	header, err := yaml.Marshal(frontmatter{
		Title:   rec.Topic,
		Slug:    rec.PostID,
		Date:    time.Now().UTC().Format("2006-01-02"),
		Keyword: rec.Metadata["primary_keyword"],
		Draft:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	draft := fmt.Sprintf("---\n%s---\n\n# %s\n", header, rec.Topic)
	if err := os.WriteFile(filepath.Join(dir, ArtifactBlogDraft), []byte(draft), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write draft: %w", err)
	}

	e.logger.Info("draft written", "post_id", rec.PostID)
	return &Result{Outputs: map[string]string{e.Name(): ArtifactBlogDraft}}, nil
}

// ReviewExecutor finalizes the draft.
type ReviewExecutor struct {
	ws     *Workspace
	logger *slog.Logger
}

func (e *ReviewExecutor) Name() string { return workflow.AgentReview }

func (e *ReviewExecutor) Execute(ctx context.Context, rec *workflow.Record) (*Result, error) {
	dir, err := e.ws.Scaffold(rec.PostID)
	if err != nil {
		return nil, err
	}

	draft, err := os.ReadFile(filepath.Join(dir, ArtifactBlogDraft))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream draft: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ArtifactBlogFinal), draft, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write final draft: %w", err)
	}

	e.logger.Info("review complete", "post_id", rec.PostID)
	return &Result{Outputs: map[string]string{e.Name(): ArtifactBlogFinal}}, nil
}

// ImageExecutor produces the image manifest.
type ImageExecutor struct {
	ws     *Workspace
	logger *slog.Logger
}

func (e *ImageExecutor) Name() string { return workflow.AgentImage }

func (e *ImageExecutor) Execute(ctx context.Context, rec *workflow.Record) (*Result, error) {
	dir, err := e.ws.Scaffold(rec.PostID)
	if err != nil {
		return nil, err
	}

	manifest := map[string]any{
		"post_id":      rec.PostID,
		"images":       []string{},
		"generated_at": time.Now().UTC(),
	}
	if err := writeJSON(filepath.Join(dir, ArtifactImageManifest), manifest); err != nil {
		return nil, err
	}

	e.logger.Info("image manifest written", "post_id", rec.PostID)
	return &Result{Outputs: map[string]string{e.Name(): ArtifactImageManifest}}, nil
}

// PublishingExecutor assembles the publish manifest from the upstream
// artifacts.
type PublishingExecutor struct {
	ws     *Workspace
	logger *slog.Logger
}

func (e *PublishingExecutor) Name() string { return workflow.AgentPublishing }

func (e *PublishingExecutor) Execute(ctx context.Context, rec *workflow.Record) (*Result, error) {
	dir, err := e.ws.Scaffold(rec.PostID)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, ArtifactBlogFinal)); err != nil {
		return nil, fmt.Errorf("final draft missing: %w", err)
	}

	manifest := map[string]any{
		"post_id":      rec.PostID,
		"topic":        rec.Topic,
		"artifacts":    rec.AgentOutputs,
		"published_at": time.Now().UTC(),
	}
	if err := writeJSON(filepath.Join(dir, ArtifactPublishManifest), manifest); err != nil {
		return nil, err
	}

	e.logger.Info("publish manifest written", "post_id", rec.PostID)
	return &Result{Outputs: map[string]string{e.Name(): ArtifactPublishManifest}}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
