package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/monitor"
	"github.com/ppiankov/newsverdict/internal/publish"
)

var (
	publishersFile string
	monitorOnce    bool
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll headlines periodically and publish new verdicts",
	Long: `Monitor polls the top headlines every monitor.interval, classifies articles
it has not seen before, and publishes one event per verdict to every enabled
publisher (HTTP webhook, Redis, SQS, SNS or Pub/Sub).

Publishers are read from a YAML or JSON file (--publishers or publish.file).
Without publishers, verdicts are only logged and recorded in history.

Example:
  newsverdict monitor --publishers publishers.yaml
  newsverdict monitor --once --json`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVar(&publishersFile, "publishers", "", "publishers file (default: publish.file)")
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "poll once and exit")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{News: true, History: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	// 1. Publishers
	file := publishersFile
	if file == "" {
		file = a.cfg.Publish.File
	}
	var pubs []publish.Publisher
	if file != "" {
		cfgs, err := publish.LoadConfigs(file)
		if err != nil {
			return err
		}
		pubs, err = publish.DefaultRegistry().BuildAll(ctx, cfgs, a.log)
		if err != nil {
			return err
		}
	}
	dispatcher := publish.NewDispatcher(pubs, a.telemetry, a.log)
	a.log.Info("monitor starting",
		logging.Duration("interval", a.cfg.Monitor.Interval),
		logging.Int("publishers", dispatcher.Len()))

	// 2. Monitor
	mcfg := monitor.ConfigFromModel(a.cfg.Monitor)
	out := cmd.OutOrStdout()
	mcfg.OnResult = func(r model.CheckResult) {
		if jsonOutput {
			if err := printJSON(out, r); err != nil {
				fmt.Fprintf(os.Stderr, "write result: %v\n", err)
			}
			return
		}
		fmt.Fprintf(out, "%-10s %s\n", verdictCell(r), r.Title())
	}
	m := monitor.New(a.pipeline, dispatcher, mcfg, a.log)

	if monitorOnce {
		stats, err := m.Poll(ctx)
		if err != nil {
			return err
		}
		a.log.Info("poll complete",
			logging.Int("new", stats.New),
			logging.Int("published", stats.Published))
		return nil
	}
	return m.Run(ctx)
}
