package main

import (
	"fmt"

	"github.com/Sorosliu1029/follower-change/internal/app"
	"github.com/Sorosliu1029/follower-change/internal/config"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func importCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upload a local snapshot file as the newest archive",
		Long: `Validate a snapshot file (current or legacy layout) and upload it to the
configured archive backend. Useful to seed a new backend from a downloaded
artifact.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File, cfg.Secrets()...)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			container, err := app.Build(ctx, cfg, logger, cmd.OutOrStdout())
			if err != nil {
				logger.Error("Failed to assemble services", zap.Error(err))
				return err
			}
			defer container.Close()

			res, err := app.ImportSnapshot(ctx, container.Writer, file, dryRun, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s captured at %s\n",
				util.CountNoun(res.Members, "member"), util.FormatISO(res.CapturedAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "snapshot file to import")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without uploading")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
