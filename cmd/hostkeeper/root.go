package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmkops/hostkeeper/internal/cmk"
	"github.com/cmkops/hostkeeper/internal/config"
	"github.com/cmkops/hostkeeper/internal/engine"
	"github.com/cmkops/hostkeeper/internal/runlog"
	"github.com/cmkops/hostkeeper/internal/store"
)

var (
	// Global flags
	cfgPath   string
	logLevel  string
	logFormat string
	quiet     bool
	globalCfg *config.Config
	logger    *slog.Logger

	// Global components
	globalLog         *runlog.Log
	globalStore       *store.Store
	globalProvisioner *engine.Provisioner
)

// initializeComponents initializes the run log, store, server bridge, and
// provisioner
func initializeComponents() error {
	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	// Every significant event goes to the persistent run log, mirrored to
	// the interactive stream.
	var mirror io.Writer = os.Stderr
	if quiet {
		mirror = io.Discard
	}
	globalLog = runlog.Open(globalCfg.State.LogPath, mirror, parseLogLevel(logLevel), logFormat)
	logger = globalLog.Logger()
	slog.SetDefault(logger)

	st, err := store.New(globalCfg.State.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	globalStore = st

	client := cmk.NewExecClient(globalCfg.Server.Binary, logger)
	globalProvisioner = engine.NewProvisioner(globalCfg, globalStore, client, logger)

	logger.Debug("components initialized")
	return nil
}

// shouldSkipComponentInit checks if a command should skip component initialization
func shouldSkipComponentInit(cmdName string) bool {
	skipInitCmds := map[string]bool{
		"help":    true,
		"version": true,
		"config":  true,
		"show":    true,
	}
	return skipInitCmds[cmdName]
}

// closeComponents closes the global store and run log. Called from main
// after Execute returns, on success and failure alike; safe to call when
// initialization never ran.
func closeComponents() {
	if globalStore != nil {
		if err := globalStore.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}
	if globalLog != nil {
		globalLog.Close()
	}
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostkeeper",
		Short: "Automated monitoring-host provisioning for piggybacked containers",
		Long: `hostkeeper keeps the monitoring server's host configuration in sync with
the piggyback spool. Each run discovers containers the agent has spooled,
registers a monitoring host per container (parented to the host that
forwarded its data), recompiles and activates the server configuration,
inventories the new hosts, and reclaims spool directories past the
retention threshold. A filesystem lock serializes overlapping scheduled
invocations.`,
		Example: `  hostkeeper run
  hostkeeper run --dry-run
  hostkeeper prune
  hostkeeper status --limit 5
  hostkeeper config show`,
		Version: "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A plain stderr logger until the run log is open
			logger = slog.New(runlog.NewHandler(os.Stderr, parseLogLevel(logLevel), logFormat))
			slog.SetDefault(logger)

			// Skip config loading for commands that don't need it
			if shouldSkipConfig(cmd.Name()) {
				return nil
			}

			// Load config
			if cfgPath == "" {
				var err error
				cfgPath, err = config.FindConfigFile()
				if err != nil {
					logger.Warn("config file not found, using defaults", "error", err)
				}
			}

			if cfgPath != "" {
				var err error
				globalCfg, err = config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			} else {
				globalCfg = config.DefaultConfig()
			}

			if !quiet {
				logger.Debug("config loaded", "path", cfgPath, "spool", globalCfg.Spool.Dir)
			}

			// Initialize components after config is loaded
			if !shouldSkipComponentInit(cmd.Name()) {
				if err := initializeComponents(); err != nil {
					return fmt.Errorf("failed to initialize components: %w", err)
				}
			}

			return nil
		},
	}

	// Add persistent flags
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress interactive output (the run log file still receives every event)")

	// Add subcommands
	cmd.AddCommand(
		newRunCmd(),
		newPruneCmd(),
		newStatusCmd(),
		newConfigCmd(),
	)

	return cmd
}

// parseLogLevel maps the --log-level flag to a slog level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// shouldSkipConfig checks if a command should skip config loading
func shouldSkipConfig(cmdName string) bool {
	skipConfigCmds := map[string]bool{
		"help":    true,
		"version": true,
	}
	return skipConfigCmds[cmdName]
}
