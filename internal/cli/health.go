package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health and activity counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestCtx(cmd)
			defer cancel()

			var result response.Health
			if err := a.api.Get(ctx, "/api/v1/health", &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}

func newResultsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recently finished games",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestCtx(cmd)
			defer cancel()

			var results []response.GameResult
			if err := a.api.Get(ctx, "/api/v1/results?limit="+strconv.Itoa(limit), &results); err != nil {
				return err
			}

			a.output(cmd).Print(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of results")
	return cmd
}
