package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jtlapenna/multi-agent-content-system/internal/orchestrator"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <post-id>",
		Short: "Run all remaining pipeline phases for a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			summary, err := a.orchestrator.RunSequential(ctx, args[0])
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}
}

func newRunAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-agent <post-id> <agent>",
		Short: "Run a single agent against the post it currently owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			res, err := a.orchestrator.RunSingleAgent(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if res.Success {
				fmt.Fprintf(cmd.OutOrStdout(), "%s completed phase %s\n", res.Agent, res.Phase)
				return nil
			}
			return res.Err
		},
	}
}

func printSummary(cmd *cobra.Command, s *orchestrator.Summary) {
	out := cmd.OutOrStdout()
	for _, step := range s.Steps {
		if step.Success {
			fmt.Fprintf(out, "  ok   %-16s %s\n", step.Agent, step.Phase)
		} else {
			fmt.Fprintf(out, "  FAIL %-16s %s: %v\n", step.Agent, step.Phase, step.Err)
		}
	}
	fmt.Fprintf(out, "%s: %d succeeded, %d failed, final status %s\n",
		s.PostID, s.Succeeded, s.Failed, s.FinalStatus)
}
