package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverdict/internal/model"
)

var fetchTimeout time.Duration

// headlinesCmd represents the headlines command
var headlinesCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Fetch the latest headlines and classify each one",
	Long: `Headlines fetches the top headlines from the configured news provider
and classifies the description of each article in provider order.

Example:
  newsverdict headlines
  newsverdict headlines --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatchCheck(cmd, func(ctx context.Context, a *app) (model.BatchResult, error) {
			return a.pipeline.CheckHeadlines(ctx)
		})
	},
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search news by keyword and classify each result",
	Long: `Search queries the configured news provider for a keyword and classifies
every returned article.

Example:
  newsverdict search election
  newsverdict search "climate summit" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return runBatchCheck(cmd, func(ctx context.Context, a *app) (model.BatchResult, error) {
			return a.pipeline.CheckKeyword(ctx, query)
		})
	},
}

func init() {
	rootCmd.AddCommand(headlinesCmd)
	rootCmd.AddCommand(searchCmd)

	for _, c := range []*cobra.Command{headlinesCmd, searchCmd} {
		c.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "overall timeout")
	}
}

func runBatchCheck(cmd *cobra.Command, check func(context.Context, *app) (model.BatchResult, error)) error {
	a, err := newApp(appOptions{News: true, History: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	batch, err := check(ctx, a)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, batch); err != nil {
			return err
		}
	} else {
		printBatch(out, batch)
	}

	if batch.Outcome == model.OutcomeUpstreamFetchError {
		return fmt.Errorf("news provider: %s", batch.Error)
	}
	return nil
}
