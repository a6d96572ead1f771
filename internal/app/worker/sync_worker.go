package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"cptracker/internal/app/service"
	"cptracker/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// SyncWorker consumes fire-and-forget sync jobs from the Redis queue. Each
// job is a student ID pushed on registration or handle change. Failures are
// logged and dropped: the implicit sync path never surfaces errors to the
// operation that queued it.
type SyncWorker struct {
	rdb         *redis.Client
	syncService *service.SyncService
}

func NewSyncWorker(rdb *redis.Client, syncService *service.SyncService) *SyncWorker {
	return &SyncWorker{rdb: rdb, syncService: syncService}
}

func (w *SyncWorker) Start(ctx context.Context) {
	queueName := config.AppConfig.SyncQueueName
	log.Println("Sync worker started, listening to queue:", queueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Sync worker stopping...")
			return
		default:
			res, err := w.rdb.BRPop(ctx, 5*time.Second, queueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue // queue empty, poll again
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue %q: %v", queueName, err)
				time.Sleep(5 * time.Second) // Avoid busy-looping on persistent errors
				continue
			}
			// BRPop returns [queueName, value].
			if len(res) < 2 {
				continue
			}
			w.process(ctx, res[1])
		}
	}
}

func (w *SyncWorker) process(ctx context.Context, studentID string) {
	jobCtx, cancel := context.WithTimeout(ctx, config.AppConfig.SyncJobTimeout)
	defer cancel()

	report, err := w.syncService.SyncStudent(jobCtx, studentID)
	if err != nil {
		// Implicit syncs are best-effort: log and move on.
		log.Printf("Background sync for student %s failed: %v", studentID, err)
		return
	}
	log.Printf("Background sync for %s done: %d contests, %d problems",
		report.Handle, report.ContestsSynced, report.ProblemsSynced)
}
