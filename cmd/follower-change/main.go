package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, constants.RunTimeout)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	run := runCmd()

	rootCmd := &cobra.Command{
		Use:           "follower-change",
		Short:         "Report new followers and unfollowers of a GitHub account",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Without a subcommand the binary behaves as the workflow step.
		RunE: run.RunE,
	}

	rootCmd.AddCommand(run)
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(importCmd())
	return rootCmd
}
