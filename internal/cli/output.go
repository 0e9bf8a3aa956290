package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ppiankov/newsverdict/internal/model"
)

// maxTitleWidth is the display width of the title column
const maxTitleWidth = 72

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBatch writes headline or search results as an aligned table
func printBatch(w io.Writer, batch model.BatchResult) {
	if batch.Outcome == model.OutcomeUpstreamFetchError {
		fmt.Fprintf(w, "✗ Error fetching articles: %s\n", batch.Error)
		return
	}
	if len(batch.Results) == 0 {
		if batch.Query != "" {
			fmt.Fprintf(w, "No articles found for %q.\n", batch.Query)
		} else {
			fmt.Fprintln(w, "No articles found.")
		}
		return
	}

	rows := [][]string{{"#", "VERDICT", "TITLE"}}
	for i, r := range batch.Results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			verdictCell(r),
			runewidth.Truncate(r.Title(), maxTitleWidth, "…"),
		})
	}
	for _, line := range formatTable(rows) {
		fmt.Fprintln(w, line)
	}
}

// printResult writes a single URL or text check
func printResult(w io.Writer, r model.CheckResult) {
	if title := r.Title(); title != "" {
		fmt.Fprintf(w, "📰 %s\n", title)
	}
	if u := r.URL(); u != "" {
		fmt.Fprintf(w, "   %s\n", u)
	}
	if r.Advisory != "" {
		fmt.Fprintf(w, "⚠️  %s\n", r.Advisory)
	}
	if r.Preview != "" {
		fmt.Fprintf(w, "\n%s\n\n", r.Preview)
	}

	switch r.Outcome {
	case model.OutcomeClassified:
		fmt.Fprintf(w, "➜ %s\n", r.Verdict.Label())
	case model.OutcomeNoContent:
		fmt.Fprintln(w, "⚠️  No content to analyze.")
	case model.OutcomeExtractionFailed:
		fmt.Fprintln(w, "⚠️  Could not extract text from URL.")
	case model.OutcomeClassificationError:
		fmt.Fprintf(w, "✗ Classification failed: %s\n", r.Error)
	}

	if r.Summary != "" {
		fmt.Fprintf(w, "\nSummary: %s\n", r.Summary)
	}
}

func verdictCell(r model.CheckResult) string {
	switch r.Outcome {
	case model.OutcomeClassified:
		return strings.ToUpper(string(r.Verdict))
	case model.OutcomeNoContent:
		return "no content"
	case model.OutcomeExtractionFailed:
		return "no text"
	default:
		return "error"
	}
}

// formatTable pads every column to its widest cell by display width
func formatTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if i == len(widths)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return lines
}
