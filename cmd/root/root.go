// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"fjacquet/voice-ledger/internal/config"
	"fjacquet/voice-ledger/internal/container"
	"fjacquet/voice-ledger/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile  string
	CatalogFile string
	LogLevel    string
	LogFormat   string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "voice-ledger",
		Short: "Turn free-text money messages into validated ledger transactions.",
		Long: `voice-ledger sends a free-text financial message to a language model and
normalizes, validates and filters the proposed transactions against your own
accounts, cards, loans, installments and categories.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to voice-ledger!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup(commandContext(cmd))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			Teardown()
		},
	}

	// SharedFlags holds the persistent flags of every command
	SharedFlags = CommonFlags{}

	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	if Cmd.PersistentFlags().Lookup("config") != nil {
		return
	}
	Cmd.PersistentFlags().StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default: ./config.yaml, .voice-ledger/ or $HOME/.voice-ledger/)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.CatalogFile, "catalog", "c", "", "Entity catalog file (YAML or JSON)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text, json)")
}

// Setup loads .env and the configuration, applies flag overrides and builds
// the dependency container.
func Setup(ctx context.Context, opts ...container.Option) error {
	if _, err := config.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if SharedFlags.CatalogFile != "" {
		cfg.Catalog.File = SharedFlags.CatalogFile
	}

	Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))

	opts = append([]container.Option{container.WithLogger(Log)}, opts...)
	c, err := container.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	appContainer = c
	return nil
}

// Teardown releases the container's resources.
func Teardown() {
	if appContainer == nil {
		return
	}
	if err := appContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close container")
	}
	appContainer = nil
}

// GetContainer returns the container built by Setup, or nil before it ran.
func GetContainer() *container.Container {
	return appContainer
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
