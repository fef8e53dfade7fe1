package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

// Processor consumes one claimed job to a terminal state. On success the
// processor completes the job itself; a returned error makes the worker mark
// it failed with the error text attached.
type Processor interface {
	Process(ctx context.Context, job *domain.Job) error
}

type WorkerConfig struct {
	Workers      int
	PollInterval time.Duration
}

// Worker polls the job store, claims pending jobs and routes them to the
// processor registered for their type. Each worker goroutine runs one job at
// a time; the store's atomic claim is the only cross-worker synchronization.
type Worker struct {
	jobs       workerJobStore
	processors map[domain.JobType]Processor
	cfg        WorkerConfig
	log        *logrus.Logger
	workerID   string

	once sync.Once
}

func NewWorker(jobs workerJobStore, processors map[domain.JobType]Processor, cfg WorkerConfig, log *logrus.Logger) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	hostname, _ := os.Hostname()
	return &Worker{
		jobs:       jobs,
		processors: processors,
		cfg:        cfg,
		log:        log,
		workerID:   fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.once.Do(func() {
		for i := 0; i < w.cfg.Workers; i++ {
			go w.workerLoop(ctx)
		}
	})
}

func (w *Worker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.jobs.ClaimNext(ctx, w.workerID)
		if err != nil {
			w.log.Errorf("claim next job: %v", err)
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if job == nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		w.ProcessJob(ctx, job)
	}
}

// ProcessJob routes one claimed job to its processor and finalizes failure.
func (w *Worker) ProcessJob(ctx context.Context, job *domain.Job) {
	log := w.log.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})

	proc, ok := w.processors[job.Type]
	if !ok {
		log.Error("no processor for job type")
		if err := w.jobs.Fail(ctx, job.ID, "no processor for job type "+string(job.Type)); err != nil {
			log.Errorf("mark job failed: %v", err)
		}
		return
	}

	log.Info("processing job")

	if err := proc.Process(ctx, job); err != nil {
		log.Errorf("process job: %v", err)
		if failErr := w.jobs.Fail(ctx, job.ID, truncateReason(err.Error())); failErr != nil {
			log.Errorf("mark job failed: %v", failErr)
		}
		return
	}

	log.Info("job finished")
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
