package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jtlapenna/multi-agent-content-system/internal/store"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <post-id>",
		Short: "Show the workflow state of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			rec, err := a.store.Get(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Post:     %s\n", rec.PostID)
			fmt.Fprintf(out, "Topic:    %s\n", rec.Topic)
			fmt.Fprintf(out, "Phase:    %s\n", rec.CurrentPhase)
			fmt.Fprintf(out, "Status:   %s\n", rec.Status)
			switch rec.Status {
			case workflow.StatusInProgress:
				fmt.Fprintf(out, "Waiting:  %s\n", rec.NextAgent)
			case workflow.StatusError:
				if last := rec.LastError(); last != nil {
					fmt.Fprintf(out, "Failed:   %s at %s: %s\n",
						last.Agent, last.Timestamp.Format("2006-01-02 15:04:05"), last.Message)
				}
			}
			if len(rec.AgentsRun) > 0 {
				fmt.Fprintf(out, "History:  %s\n", strings.Join(rec.AgentsRun, " -> "))
			}
			fmt.Fprintf(out, "Created:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated:  %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			records, err := a.store.ListAll(ctx, store.Filter{Status: workflow.Status(status)})
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workflows found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POST\tPHASE\tSTATUS\tNEXT AGENT\tUPDATED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.PostID, rec.CurrentPhase, rec.Status, rec.NextAgent,
					rec.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (in_progress, completed, error)")
	return cmd
}
