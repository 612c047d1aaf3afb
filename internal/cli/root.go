package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seshat-ai/seshat/internal/config"
	"github.com/seshat-ai/seshat/internal/logger"
	"github.com/seshat-ai/seshat/internal/tracing"
	"github.com/seshat-ai/seshat/pkg/session"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seshat",
	Short: "Seshat - session store for coding-agent transcripts",
	Long: `Seshat persists agent conversation transcripts as append-only JSONL
files and answers listing, resume, and cleanup queries from filenames and
minimal record peeks.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return tracing.Init("seshat", version)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		_ = tracing.Shutdown(context.Background())
	}()
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.seshat/seshat.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// buildStore loads configuration, initializes logging, and opens the
// session store. forceCleanup arms expiry cleanup regardless of runtime.
func buildStore(forceCleanup bool) (*session.Store, *config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if _, err := logger.New(logger.Config{
		Level:   level,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := session.New(session.Config{
		Root:          cfg.Store.Root,
		Retention:     cfg.Retention(),
		EnableCleanup: cfg.IsProduction() || forceCleanup,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return store, cfg, nil
}
