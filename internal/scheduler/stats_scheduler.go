package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/service"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const reconcileTimeout = 10 * time.Minute

// StatsScheduler periodically recomputes every business aggregate so that a
// recompute lost after a committed review is eventually repaired.
type StatsScheduler struct {
	cron     *cron.Cron
	schedule string
	stats    service.StatsService
}

func NewStatsScheduler(stats service.StatsService, schedule string) *StatsScheduler {
	return &StatsScheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		stats:    stats,
	}
}

// Start registers the reconcile job and starts the cron runner.
func (s *StatsScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.reconcile)
	if err != nil {
		logger.Error("Failed to add cron job for stats reconcile", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Stats scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *StatsScheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	logger.Info("Starting scheduled stats reconcile")
	start := time.Now()

	n, err := s.stats.ReconcileAllStats(ctx)
	if err != nil {
		logger.Error("Scheduled stats reconcile finished with errors", err, map[string]interface{}{
			"businesses": n,
		})
		return
	}

	logger.Info("Scheduled stats reconcile finished", map[string]interface{}{
		"businesses": n,
		"duration":   time.Since(start).String(),
	})
}

// Stop waits for a running reconcile to finish.
func (s *StatsScheduler) Stop() {
	logger.Info("Stopping stats scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Stats scheduler stopped")
}
