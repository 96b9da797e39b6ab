package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/adapter"
	"github.com/Sorosliu1029/follower-change/internal/domain"
	"github.com/Sorosliu1029/follower-change/internal/service/snapshot"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type previewOptions struct {
	previous           string
	current            string
	format             string
	login              string
	includeUnfollowers bool
	logLevel           string
}

func previewCmd() *cobra.Command {
	opts := previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the report for two local snapshot files",
		Long: `Diff two snapshot files written by earlier runs and print the report.
No network access is needed; the capture time of the current file stands in
for "now".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := util.NewLogger(opts.logLevel, "")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runPreview(cmd.OutOrStdout(), opts, logger)
		},
	}

	cmd.Flags().StringVar(&opts.previous, "previous", "", "previous snapshot file")
	cmd.Flags().StringVar(&opts.current, "current", "", "current snapshot file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(adapter.FormatMarkdown), "plaintext, markdown or html")
	cmd.Flags().StringVar(&opts.login, "login", "", "account login used for the followers page link")
	cmd.Flags().BoolVar(&opts.includeUnfollowers, "include-unfollowers", true, "list unfollowers in the report")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("previous")
	_ = cmd.MarkFlagRequired("current")

	return cmd
}

func runPreview(w io.Writer, opts previewOptions, logger *zap.Logger) error {
	format, err := adapter.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	previous, err := readSnapshot(opts.previous)
	if err != nil {
		return err
	}
	current, err := readSnapshot(opts.current)
	if err != nil {
		return err
	}

	delta := domain.Diff(previous.Members, current.Members)
	logger.Debug("Preview diff",
		zap.Int("new_followers", len(delta.Joined)),
		zap.Int("unfollowers", len(delta.Left)),
	)

	capturedAt := previous.CapturedAt
	ctx := adapter.ReportContext{
		SubjectHandle: opts.login,
		CapturedAt:    &capturedAt,
		TotalCount:    len(current.Members),
		Joined:        delta.Joined,
		Now:           current.CapturedAt,
	}
	if opts.includeUnfollowers {
		ctx.Left = delta.Left
	}
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}

	report, err := adapter.Render(format, ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, report)
	return err
}

func readSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
