package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/davarch/qfc-sync/internal/application"
	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/davarch/qfc-sync/internal/infrastructure/fswatch"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchOpts     syncFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync once, then again whenever the local project folder changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if cmd.Flags().Changed("debounce") {
			cfg.Watch.Debounce = watchDebounce
		}
		if err := watchOpts.apply(cmd, &cfg); err != nil {
			return err
		}

		uc := newSyncUseCase(cfg, log, watchOpts.summaryJSON)
		req := watchOpts.request(cfg)

		sched := application.NewScheduler(log, func(ctx context.Context) domain.SyncSummary {
			sum := uc.Run(ctx, req)
			printReport(os.Stdout, sum)
			return sum
		}, cfg.Watch.Debounce, cfg.Watch.PauseFile, clockwork.NewRealClock())

		summaryAbs, _ := filepath.Abs(watchOpts.summaryJSON)
		w, err := fswatch.New(log, watchOpts.projectPath, func(p string) {
			if abs, _ := filepath.Abs(p); watchOpts.summaryJSON != "" && (abs == summaryAbs || abs == summaryAbs+".tmp") {
				return
			}
			sched.Trigger()
		})
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		go w.Run(ctx)

		log.Info("start",
			zap.String("version", version),
			zap.String("url", cfg.Cloud.URL),
			zap.String("project", watchOpts.projectID),
			zap.String("path", watchOpts.projectPath),
			zap.Duration("debounce", cfg.Watch.Debounce),
			zap.String("pause_file", cfg.Watch.PauseFile),
		)
		sched.Run(ctx)

		if last, runs := sched.Last(); last != nil {
			log.Info("stopped", zap.Int("runs", runs), zap.Bool("last_ok", last.OK))
		}
		return nil
	},
}

func init() {
	watchOpts.bind(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period after the last change before syncing")
	rootCmd.AddCommand(watchCmd)
}
