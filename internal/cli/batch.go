package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Classify article URLs from a file in parallel",
	Long: `Batch reads article URLs from a file (one per line, # comments allowed),
fetches and classifies them with a pool of workers, and prints the verdicts
in file order.

Example:
  newsverdict batch urls.txt
  newsverdict batch urls.txt --concurrency 8 --timeout 5m --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchLine is one row of --json batch output
type batchLine struct {
	URL    string            `json:"url"`
	Result model.CheckResult `json:"result"`
	Error  string            `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	a, err := newApp(appOptions{History: true})
	if err != nil {
		return err
	}
	defer a.close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	if !jsonOutput {
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
		fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
		fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
		fmt.Fprintf(os.Stderr, "\n")
	}

	processor := worker.NewBatchProcessor(a.pipeline, workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		lines := make([]batchLine, 0, len(results))
		for _, r := range results {
			line := batchLine{URL: r.URL, Result: r.Check}
			if r.Error != nil {
				line.Error = r.Error.Error()
			}
			lines = append(lines, line)
		}
		return printJSON(out, lines)
	}

	counts := map[string]int{}
	rows := [][]string{{"#", "VERDICT", "URL"}}
	for i, r := range results {
		cell := verdictCell(r.Check)
		if r.Error != nil && r.Check.Outcome == "" {
			cell = "error"
		}
		counts[cell]++
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), cell, r.URL})
	}
	for _, line := range formatTable(rows) {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Real:      %d\n", counts["REAL"])
	fmt.Fprintf(os.Stderr, "  Fake:      %d\n", counts["FAKE"])
	fmt.Fprintf(os.Stderr, "  No text:   %d\n", counts["no text"])
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", counts["error"])
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
