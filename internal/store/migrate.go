package store

import (
	"context"
	"log/slog"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
)

// BackfillReport summarizes one mirror-to-primary reconciliation pass.
type BackfillReport struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Migrator backfills records that exist only on the mirror (written
// during a primary outage) into the primary store. Records the primary
// already knows are left untouched; the primary wins, consistent with
// the best-effort fallback doctrine.
type Migrator struct {
	primary Store
	mirror  Store
	logger  *slog.Logger
}

// NewMigrator builds a mirror-to-primary migrator.
func NewMigrator(primary, mirror Store, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		primary: primary,
		mirror:  mirror,
		logger:  logger.With("component", "store-migrator"),
	}
}

// Backfill copies mirror-only records into the primary and reports
// counts. Individual record failures are logged and counted, not fatal.
func (m *Migrator) Backfill(ctx context.Context) (BackfillReport, error) {
	var report BackfillReport

	records, err := m.mirror.ListAll(ctx, Filter{})
	if err != nil {
		return report, err
	}

	for _, rec := range records {
		report.Scanned++

		_, err := m.primary.Get(ctx, rec.PostID)
		if err == nil {
			report.Skipped++
			continue
		}
		if !types.IsNotFound(err) {
			m.logger.Warn("backfill probe failed", "post_id", rec.PostID, "error", err)
			report.Failed++
			continue
		}

		if _, err := m.primary.Create(ctx, rec); err != nil {
			m.logger.Warn("backfill create failed", "post_id", rec.PostID, "error", err)
			report.Failed++
			continue
		}
		m.logger.Info("backfilled mirror-only record", "post_id", rec.PostID)
		report.Migrated++
	}
	return report, nil
}
