package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"cptracker/internal/app/service"
	"cptracker/internal/common"
	"cptracker/internal/domain/model"
	"cptracker/internal/platform/config"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the daily inactivity-check pipeline. The cron entry and
// the manual trigger run the exact same routine; a re-entrancy guard keeps
// a manual trigger from overlapping a scheduled run (and vice versa), which
// would otherwise risk double-sending within one process.
type Scheduler struct {
	cron      *cron.Cron
	reminders *service.ReminderService
	running   atomic.Bool
}

func New(reminders *service.ReminderService) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		reminders: reminders,
	}
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	spec := config.AppConfig.ReminderCronSpec
	_, err := s.cron.AddFunc(spec, func() {
		log.Println("Running scheduled inactivity check...")
		// The batch bound only guards against a fully wedged run; per-send
		// timeouts live in the reminder service.
		ctx, cancel := context.WithTimeout(context.Background(), config.AppConfig.ReminderBatchTimeout)
		defer cancel()

		results, err := s.TriggerOnce(ctx)
		if err != nil {
			log.Printf("Error in scheduled inactivity check: %v", err)
			return
		}
		log.Printf("Scheduled inactivity check completed. Processed %d students.", len(results))
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Inactivity check scheduled with cron spec %q", spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Inactivity scheduler stopped")
}

// TriggerOnce runs the reminder batch synchronously and returns its
// results. A second caller while a batch is running gets
// common.ErrBatchInProgress instead of a concurrent run.
func (s *Scheduler) TriggerOnce(ctx context.Context) ([]model.ReminderResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, common.ErrBatchInProgress
	}
	defer s.running.Store(false)

	return s.reminders.RunBatch(ctx, time.Now())
}
