// Package store provides durable persistence for workflow records: a
// SQLite-backed structured store (primary), a JSON file mirror
// (fallback), and a decorator that keeps the two consistent on a
// best-effort basis.
package store

import (
	"context"

	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// Filter narrows ListAll results. Zero-valued fields match everything.
type Filter struct {
	Status workflow.Status
	Phase  workflow.Phase
}

// Store is the persistence contract shared by all backends. Update is
// atomic with respect to a single writer; the core guarantees one active
// writer per record, so no concurrent-writer conflict resolution is
// provided.
type Store interface {
	// Create persists a new record. Fails with already_exists when the
	// post_id is taken.
	Create(ctx context.Context, rec *workflow.Record) (*workflow.Record, error)

	// Get retrieves a record by post_id. Fails with not_found when absent.
	Get(ctx context.Context, postID string) (*workflow.Record, error)

	// Update merges a partial update into an existing record and
	// refreshes updated_at. Fails with not_found when absent.
	Update(ctx context.Context, postID string, u workflow.Update) (*workflow.Record, error)

	// ListByPhaseAndAgent returns in-progress records claimable by the
	// agent at the phase, ordered oldest created_at first.
	ListByPhaseAndAgent(ctx context.Context, phase workflow.Phase, agent string) ([]*workflow.Record, error)

	// ListAll returns records matching the filter, ordered oldest
	// created_at first.
	ListAll(ctx context.Context, f Filter) ([]*workflow.Record, error)

	// Close releases backend resources.
	Close() error
}
