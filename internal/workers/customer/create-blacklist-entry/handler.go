// internal/workers/customer/create-blacklist-entry/handler.go
package createblacklistentry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"customer-onboarding/internal/common/errors"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/metrics"
	"customer-onboarding/internal/common/validation"
	"customer-onboarding/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "blacklist-entry-create"
)

type Store interface {
	Create(ctx context.Context, record *models.BlacklistRecord) (*models.BlacklistRecord, error)
}

type Handler struct {
	config       *Config
	store        Store
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, store Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		schema:       validation.MustSchema(validation.BlacklistEntrySchema),
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job,
			errors.NewValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if result := h.schema.ValidateGo(input); !result.Valid {
		return nil, errors.NewValidationFailedError(result.Summary())
	}
	if input.DateOfBirth != nil {
		if _, err := validation.ParseDate(*input.DateOfBirth); err != nil {
			return nil, errors.NewValidationFailedError("date_of_birth: must be a valid calendar date")
		}
	}

	record, err := h.store.Create(ctx, &models.BlacklistRecord{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		DateOfBirth: input.DateOfBirth,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		BlacklistID: record.ID,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
