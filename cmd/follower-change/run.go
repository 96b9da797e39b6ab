package main

import (
	"fmt"

	"github.com/Sorosliu1029/follower-change/internal/app"
	"github.com/Sorosliu1029/follower-change/internal/config"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Diff current followers against the last snapshot and emit step outputs",
		Args:  cobra.NoArgs,
		RunE:  runFollowerChange,
	}
}

func runFollowerChange(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File, cfg.Secrets()...)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("follower-change starting",
		zap.String("version", Version),
		zap.String("backend", cfg.Archive.Backend),
		zap.Bool("include_unfollower", cfg.Inputs.IncludeUnfollower),
	)

	ctx := cmd.Context()
	container, err := app.Build(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		logger.Error("Failed to assemble services", zap.Error(err))
		return err
	}
	defer container.Close()

	for _, secret := range cfg.Secrets() {
		container.Outputs.Mask(secret)
	}

	out, err := container.Runner.Run(ctx)
	if err != nil {
		logger.Error("Run failed", zap.Error(err))
		return err
	}

	logger.Info("follower-change done",
		zap.Bool("changed", out.Changed),
		zap.Bool("should_notify", out.ShouldNotify),
		zap.Int("new_followers", out.NewFollowerCount),
		zap.Int("unfollowers", out.UnfollowerCount),
	)
	return nil
}
