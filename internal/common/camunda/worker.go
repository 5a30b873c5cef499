// internal/common/camunda/worker.go
package camunda

import (
	"customer-onboarding/internal/common/config"
	"customer-onboarding/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Workers tracks opened job workers so they can be closed together.
type Workers struct {
	workers []worker.JobWorker
	logger  logger.Logger
}

func NewWorkers(log logger.Logger) *Workers {
	return &Workers{logger: log}
}

// Start opens a job worker for taskType unless the worker is disabled.
func (w *Workers) Start(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()
	w.workers = append(w.workers, jobWorker)

	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

func (w *Workers) Len() int {
	return len(w.workers)
}

// Close stops polling and waits for in-flight jobs.
func (w *Workers) Close() {
	for _, jw := range w.workers {
		jw.Close()
		jw.AwaitClose()
	}
	w.workers = nil
}
