package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/edaconf/edaconf/pkg/config"
	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/engine"
	"github.com/edaconf/edaconf/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var (
		interval  time.Duration
		historyDB string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-apply whenever the manifest changes",
		Long: `Apply the manifest, then keep running: every time the manifest file
changes on disk the manifest is reloaded and applied again. With
--interval the manifest is additionally re-applied on a timer, which
also converges drift introduced on the controller side.

Prometheus metrics are served on the metrics listen address while
watching. A failed apply is logged and the watch continues; the
controller converges on the next trigger.`,
		Example: `  # Re-apply on every manifest change
  edactl watch

  # Also re-apply every 5 minutes to converge controller-side drift
  edactl watch --interval 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tel, err := newTelemetry()
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tel.Shutdown(ctx)
			}()

			log := tel.Logger.NewComponentLogger("watch")
			if err := tel.Metrics.StartServer(); err != nil {
				log.WithError(err).Warn("metrics server disabled")
			}

			watcher, err := config.NewWatcher(manifestPath, tel.Logger)
			if err != nil {
				return err
			}
			defer watcher.Close()

			ctx := cmd.Context()
			go func() {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("watcher stopped")
				}
			}()

			tel.Metrics.WatchStarted()
			defer tel.Metrics.WatchStopped()

			var ticker *time.Ticker
			var tick <-chan time.Time
			if interval > 0 {
				ticker = time.NewTicker(interval)
				defer ticker.Stop()
				tick = ticker.C
			}

			applyOnce(ctx, tel, historyDB)
			for {
				select {
				case <-ctx.Done():
					log.Info("watch stopped")
					return nil
				case <-watcher.Changes():
					log.Info("manifest changed, applying")
					applyOnce(ctx, tel, historyDB)
				case <-tick:
					log.Debug("interval elapsed, applying")
					applyOnce(ctx, tel, historyDB)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "also re-apply on this interval (0 disables)")
	cmd.Flags().StringVar(&historyDB, "history-db", "edaconf-history.db", "run history database path (empty disables history)")

	return cmd
}

// applyOnce loads the manifest fresh and applies it. Errors are logged,
// not returned: the watch survives a bad manifest revision or a
// controller outage and retries on the next trigger.
func applyOnce(ctx context.Context, tel *telemetry.Telemetry, historyDB string) {
	log := tel.Logger.NewComponentLogger("watch")

	manifest, err := config.NewLoader().Load(manifestPath)
	if err != nil {
		log.WithError(err).Error("manifest load failed, keeping previous state")
		return
	}

	client, err := controller.NewClient(manifest.Controller,
		controller.WithObserver(tel.Metrics.ObserveAPIRequest))
	if err != nil {
		log.WithError(err).Error("controller client setup failed")
		return
	}

	rt := &runtime{
		manifest: manifest,
		client:   client,
		reconciler: engine.NewReconciler(client,
			engine.WithLogger(tel.Logger),
			engine.WithMetrics(tel.Metrics)),
		tel: tel,
	}

	summary := rt.reconcileAll(ctx, manifest.Specs())
	status := "completed"
	if summary.Failed {
		status = "failed"
	}
	tel.Metrics.ObserveRun(status)
	recordRun(ctx, historyDB, summary, tel.Logger)

	log.WithRunID(summary.RunID).
		WithField("changed", summary.Changed).
		WithField("total", len(summary.Results)).
		WithField("status", status).
		Info("apply finished")
}
