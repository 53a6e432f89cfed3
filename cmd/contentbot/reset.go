package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtlapenna/multi-agent-content-system/internal/store"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <post-id> <agent>",
		Short: "Return a failed workflow to routing at the given agent",
		Long: `Reset restores an errored workflow to in_progress and hands ownership
to the named agent at the phase that agent works on. The error history
is preserved for auditing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			rec, err := a.router.Reset(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s: phase %s, next agent %s\n",
				rec.PostID, rec.CurrentPhase, rec.NextAgent)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Backfill the primary store from the JSON mirror",
		Long: `Migrate scans the JSON mirror and creates any records missing from the
primary store. Run it after the primary recovers from an outage during
which workflows were created against the mirror alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			report, err := store.NewMigrator(a.primary, a.mirror, a.logger).Backfill(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d, migrated %d, skipped %d, failed %d\n",
				report.Scanned, report.Migrated, report.Skipped, report.Failed)
			return nil
		},
	}
}
