package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seshat-ai/seshat/internal/observability"
	"github.com/seshat-ai/seshat/pkg/session"
)

var (
	serveMetricsAddr string
	serveForce       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled cleanup in the foreground",
	Long: `Run expiry cleanup on the configured cron schedule, optionally
exposing Prometheus metrics, until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "address to serve /metrics on (empty disables the endpoint)")
	serveCmd.Flags().BoolVar(&serveForce, "force", false, "arm cleanup even outside a production runtime")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	store, cfg, err := buildStore(serveForce)
	if err != nil {
		return err
	}

	janitor := session.NewJanitor(store, cfg.Store.CleanupSchedule)
	if err := janitor.Start(); err != nil {
		return err
	}
	defer func() {
		_ = janitor.Stop()
	}()

	if serveMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		go func() {
			if err := http.ListenAndServe(serveMetricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
		log.Info().Str("addr", serveMetricsAddr).Msg("Metrics endpoint listening")
	}

	fmt.Printf("Janitor running on schedule %q (ctrl-c to stop)\n", cfg.Store.CleanupSchedule)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	return nil
}
