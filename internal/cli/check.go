package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverdict/internal/model"
)

var (
	checkText    string
	checkURL     string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Classify an article URL or a piece of text",
	Long: `Check classifies a single input:
- --url fetches the page, extracts the article text and classifies it
- --text classifies the given text; "-" reads it from stdin

Texts shorter than 20 words are still classified, with an advisory.

Example:
  newsverdict check --url https://example.com/news/story
  newsverdict check --text "Scientists confirm the moon is made of cheese"
  cat article.txt | newsverdict check --text - --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkText, "text", "", `text to classify ("-" reads stdin)`)
	checkCmd.Flags().StringVar(&checkURL, "url", "", "article URL to fetch and classify")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall timeout")
	checkCmd.MarkFlagsMutuallyExclusive("text", "url")
	checkCmd.MarkFlagsOneRequired("text", "url")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := checkText
	if text == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(raw)
	}
	if cmd.Flags().Changed("text") && strings.TrimSpace(text) == "" {
		return errors.New("please enter text to analyze")
	}

	a, err := newApp(appOptions{History: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	var result model.CheckResult
	var checkErr error
	if cmd.Flags().Changed("url") {
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Fetching %s...\n", checkURL)
		}
		result, checkErr = a.pipeline.CheckURL(ctx, checkURL)
	} else {
		result, checkErr = a.pipeline.CheckText(ctx, text)
	}
	if checkErr != nil && result.Outcome == "" {
		return checkErr
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		printResult(out, result)
	}

	if checkErr != nil {
		return checkErr
	}
	if result.Outcome == model.OutcomeExtractionFailed {
		return fmt.Errorf("could not extract text from %s", checkURL)
	}
	return nil
}
