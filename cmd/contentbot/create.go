package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var (
		meta []string
		run  bool
	)

	cmd := &cobra.Command{
		Use:   "create <topic>",
		Short: "Create a new workflow for a blog topic",
		Long: `Create registers a new post for the topic, scaffolds its artifact
directory, and queues it for the first agent. With --run the whole
pipeline executes immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}

			rec, err := a.router.CreateNewWorkflow(ctx, args[0], metadata)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (next agent: %s)\n", rec.PostID, rec.NextAgent)

			if !run {
				return nil
			}
			summary, err := a.orchestrator.RunSequential(ctx, rec.PostID)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata entry as key=value (repeatable)")
	cmd.Flags().BoolVar(&run, "run", false, "run the full pipeline after creating")
	return cmd
}

func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --meta entry %q, want key=value", e)
		}
		out[k] = v
	}
	return out, nil
}
