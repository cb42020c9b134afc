package reconciler

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeMediaSweep is the asynq task type for a reconciliation sweep
const TypeMediaSweep = "media:sweep"

// NewSweepTask creates a sweep task. The task carries no payload; the
// sweep's scope comes from the worker's configuration.
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeMediaSweep, nil)
}

// TaskHandler processes sweep tasks
type TaskHandler struct {
	sweeper *Sweeper
	logger  *zap.Logger
}

// NewTaskHandler creates a task handler around a sweeper
func NewTaskHandler(sweeper *Sweeper, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		sweeper: sweeper,
		logger:  logger,
	}
}

// HandleSweepTask runs one sweep. Returning an error lets asynq retry
// the task with its own backoff.
func (h *TaskHandler) HandleSweepTask(ctx context.Context, _ *asynq.Task) error {
	h.logger.Info("starting reconciliation sweep")
	return h.sweeper.Sweep(ctx)
}
