package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svw.info/numbermaster/internal/adapters/tui"
	"svw.info/numbermaster/internal/logging"
)

var (
	playSession string
	playLogFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play in the terminal.

The session is saved when you quit and resumed the next time you play
with the same --session.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playSession, "session", "default", "Session to resume or start")
	playCmd.Flags().StringVar(&playLogFile, "log-file", "", "Write logs here while playing (default: discard)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	// the terminal belongs to the game
	log := zap.NewNop()
	if playLogFile != "" {
		f, err := os.OpenFile(playLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log, _, err = logging.NewWriter(f, cfg.Logging.Level)
		if err != nil {
			return err
		}
	}
	logger = log

	svc, closeStore, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	return tui.Run(cmd.Context(), svc, playSession)
}
