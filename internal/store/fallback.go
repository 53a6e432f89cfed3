package store

import (
	"context"
	"log/slog"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// FallbackStore composes a primary store and a mirror. Every write goes
// to the primary first and is mirrored best-effort on success; when the
// primary is unavailable the write lands on the mirror alone and the
// caller's logical operation still succeeds (degraded durability).
// Reads prefer the primary and fall back to the mirror both when the
// primary is unavailable and when a record exists only on the mirror
// after a degraded write. Reconciliation is not automatic; see Migrator.
type FallbackStore struct {
	primary Store
	mirror  Store
	logger  *slog.Logger
}

// NewFallbackStore builds the dual-persistence decorator.
func NewFallbackStore(primary, mirror Store, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		primary: primary,
		mirror:  mirror,
		logger:  logger.With("component", "fallback-store"),
	}
}

// logicalError reports whether the error is a deliberate contract error
// (not_found, already_exists, validation) rather than backend
// unavailability. Anything else from the primary is treated as
// remote-store-unavailable.
func logicalError(err error) bool {
	return types.IsNotFound(err) ||
		types.IsAlreadyExists(err) ||
		types.IsValidation(err)
}

// Create writes to the primary, mirroring on success. When the primary
// is unavailable the record is created on the mirror alone.
func (s *FallbackStore) Create(ctx context.Context, rec *workflow.Record) (*workflow.Record, error) {
	created, err := s.primary.Create(ctx, rec)
	if err != nil {
		if logicalError(err) {
			return nil, err
		}
		s.logger.Warn("primary store create failed, falling back to mirror",
			"post_id", rec.PostID,
			"error", types.NewRemoteUnavailableError("create", err))
		return s.mirror.Create(ctx, rec)
	}

	if _, merr := s.mirror.Create(ctx, created); merr != nil && !types.IsAlreadyExists(merr) {
		s.logger.Warn("mirror create failed", "post_id", rec.PostID, "error", merr)
	}
	return created, nil
}

// Get reads from the primary. A miss or failure falls through to the
// mirror; when both miss, the primary's not_found is returned.
func (s *FallbackStore) Get(ctx context.Context, postID string) (*workflow.Record, error) {
	rec, err := s.primary.Get(ctx, postID)
	if err == nil {
		return rec, nil
	}
	if !logicalError(err) {
		s.logger.Warn("primary store get failed, reading mirror",
			"post_id", postID,
			"error", types.NewRemoteUnavailableError("get", err))
	}

	mrec, merr := s.mirror.Get(ctx, postID)
	if merr == nil {
		return mrec, nil
	}
	return nil, err
}

// Update applies the update to the primary and replays it on the mirror.
// A record the primary does not know (created during an outage) is
// updated on the mirror alone; a primary outage likewise degrades to the
// mirror.
func (s *FallbackStore) Update(ctx context.Context, postID string, u workflow.Update) (*workflow.Record, error) {
	updated, err := s.primary.Update(ctx, postID, u)
	if err != nil {
		if types.IsNotFound(err) {
			// Possibly a mirror-only record from a degraded create.
			if mrec, merr := s.mirror.Update(ctx, postID, u); merr == nil {
				return mrec, nil
			}
			return nil, err
		}
		if logicalError(err) {
			return nil, err
		}
		s.logger.Warn("primary store update failed, falling back to mirror",
			"post_id", postID,
			"error", types.NewRemoteUnavailableError("update", err))
		return s.mirror.Update(ctx, postID, u)
	}

	if _, merr := s.mirror.Update(ctx, postID, u); merr != nil {
		if types.IsNotFound(merr) {
			// Mirror never saw this record; seed it with the updated state.
			if _, cerr := s.mirror.Create(ctx, updated); cerr != nil {
				s.logger.Warn("mirror backfill on update failed", "post_id", postID, "error", cerr)
			}
		} else {
			s.logger.Warn("mirror update failed", "post_id", postID, "error", merr)
		}
	}
	return updated, nil
}

// ListByPhaseAndAgent lists from the primary, falling back to the mirror
// when the primary is unavailable. Mirror-only records are not merged
// into a healthy primary's listing; backfill handles those.
func (s *FallbackStore) ListByPhaseAndAgent(ctx context.Context, phase workflow.Phase, agent string) ([]*workflow.Record, error) {
	records, err := s.primary.ListByPhaseAndAgent(ctx, phase, agent)
	if err == nil {
		return records, nil
	}
	if logicalError(err) {
		return nil, err
	}
	s.logger.Warn("primary store list failed, reading mirror",
		"phase", phase, "agent", agent,
		"error", types.NewRemoteUnavailableError("list", err))
	return s.mirror.ListByPhaseAndAgent(ctx, phase, agent)
}

// ListAll lists from the primary, falling back to the mirror when the
// primary is unavailable.
func (s *FallbackStore) ListAll(ctx context.Context, f Filter) ([]*workflow.Record, error) {
	records, err := s.primary.ListAll(ctx, f)
	if err == nil {
		return records, nil
	}
	if logicalError(err) {
		return nil, err
	}
	s.logger.Warn("primary store list failed, reading mirror",
		"error", types.NewRemoteUnavailableError("list", err))
	return s.mirror.ListAll(ctx, f)
}

// Close closes both backends, returning the first error.
func (s *FallbackStore) Close() error {
	perr := s.primary.Close()
	merr := s.mirror.Close()
	if perr != nil {
		return perr
	}
	return merr
}
