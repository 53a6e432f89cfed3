package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
)

// Workspace owns the filesystem artifact area: one directory per post
// where agents write their named output files. The core only creates
// the skeleton and never interprets file contents.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		return nil, types.NewValidationError("workspace root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Dir returns the artifact directory for a post.
func (w *Workspace) Dir(postID string) (string, error) {
	if postID == "" {
		return "", types.NewValidationError("post_id cannot be empty")
	}
	if postID != filepath.Base(postID) || strings.HasPrefix(postID, ".") {
		return "", types.NewValidationError("post_id is not a valid directory name: " + postID)
	}
	return filepath.Join(w.root, postID), nil
}

// Scaffold creates the artifact directory skeleton for a post and
// returns its path. Scaffolding an existing directory is a no-op.
func (w *Workspace) Scaffold(postID string) (string, error) {
	dir, err := w.Dir(postID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		return "", fmt.Errorf("failed to scaffold artifact directory: %w", err)
	}
	return dir, nil
}
