package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncOpts syncFlags

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload a local project folder, run the process and package jobs, verify the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if err := syncOpts.apply(cmd, &cfg); err != nil {
			return err
		}
		uc := newSyncUseCase(cfg, log, syncOpts.summaryJSON)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Info("start",
			zap.String("version", version),
			zap.String("url", cfg.Cloud.URL),
			zap.String("project", syncOpts.projectID),
			zap.String("path", syncOpts.projectPath),
			zap.Bool("auto_create", cfg.Sync.AutoCreate),
		)

		sum := uc.Run(ctx, syncOpts.request(cfg))
		printReport(os.Stdout, sum)

		if sum.ExitCode() != 0 {
			_, _ = fmt.Fprintf(os.Stderr, "Cloud sync error: %s\n", strings.Join(sum.Errors, "; "))
			return errFailed
		}
		return nil
	},
}

func init() {
	syncOpts.bind(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
