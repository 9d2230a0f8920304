package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TaskRunner owns the goroutines of in-flight import jobs. Each job gets
// its own cancelable context, detached from the submitting request so a
// closed HTTP connection does not kill the import.
type TaskRunner struct {
	log *logrus.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewTaskRunner(log *logrus.Logger) *TaskRunner {
	return &TaskRunner{
		log:     log,
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Go launches job in the background keyed by taskID. The job context
// keeps ctx's values (pool, logger, auth user) but not its cancellation.
func (r *TaskRunner) Go(ctx context.Context, taskID uuid.UUID, job func(ctx context.Context)) {
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	r.mu.Lock()
	r.cancels[taskID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.WithField("taskId", taskID).Errorf("import job panicked: %v", rec)
			}
			r.remove(taskID)
			cancel()
		}()
		job(jobCtx)
	}()
}

// Cancel requests cancellation of a running task. Returns false when the
// task is unknown or already finished.
func (r *TaskRunner) Cancel(taskID uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[taskID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Wait blocks until every launched job has returned. Used on shutdown.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}

func (r *TaskRunner) remove(taskID uuid.UUID) {
	r.mu.Lock()
	delete(r.cancels, taskID)
	r.mu.Unlock()
}
