package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	Long: `Serve starts the web UI (headlines, URL, keyword and text checks, history)
and the JSON API under /api/v1, plus /health, /ready and /metrics.

Example:
  newsverdict serve
  newsverdict serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{News: true, History: true})
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	opts := server.Options{
		Ready:     a.ready,
		Telemetry: a.telemetry,
		Logger:    a.log,
		Version:   Version,
	}
	if a.history != nil {
		opts.History = a.history
	}

	srv, err := server.New(cfg, a.pipeline, opts)
	if err != nil {
		return err
	}

	a.log.Info("newsverdict web UI", logging.String("addr", cfg.Addr), logging.String("version", Version))
	return srv.Run(cmd.Context())
}
