package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"quizroom/internal/config"
	"quizroom/internal/logging"
	"quizroom/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const releaseVersion = "0.1.0"

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quizroom",
		Short:   "Live multiplayer trivia rooms over websockets.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(cfg.Verbose, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("starting quizroom", zap.String("version", releaseVersion))
			return server.Run(cmd.Context(), *cfg, logger)
		},
	}
	cfg.RegisterFlags(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func main() {
	log.SetFlags(0)
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("loading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	if err := newCmd(cfg).ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}
