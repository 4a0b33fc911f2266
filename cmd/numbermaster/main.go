package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svw.info/numbermaster/internal/config"
	"svw.info/numbermaster/internal/logging"
)

var (
	// Global flags
	cfgPath     string
	logLevel    string
	storeDriver string
	dataDir     string

	cfg          *config.Config
	logger       *zap.Logger
	logLevelAtom zap.AtomicLevel
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "numbermaster",
	Short: "Number Master - the pair-matching number puzzle",
	Long: `Number Master is a pair-matching puzzle on a nine column grid.

Match two equal numbers, or two numbers that add up to 10, when nothing
but matched or empty cells lies between them. Clear the grid to reach the
next level.

Use "serve" for the browser game or "play" for the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		// play replaces this with a logger that stays off the terminal
		logger, logLevelAtom, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads the config file, then lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if flags.Changed("store") {
		c.Storage.Driver = storeDriver
	}
	if flags.Changed("data-dir") {
		c.Storage.Path = dataDir
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "fs", "Storage driver: fs|sqlite|memory")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Save directory (fs) or database file (sqlite)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
