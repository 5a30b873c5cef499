// internal/workers/customer/onboard-customer/handler.go
package onboardcustomer

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
	TaskType = "customer-onboard"

	StatusOnboarded = "ONBOARDED"
)

type Onboarder interface {
	Onboard(ctx context.Context, app *models.CustomerApplication) (*models.Customer, error)
}

type Handler struct {
	config       *Config
	service      Onboarder
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, service Onboarder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		schema:       validation.MustSchema(validation.CustomerApplicationSchema),
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
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

	h.completeJob(ctx, client, job, output)
}

// Execute validates the application and runs it through onboarding.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	app := &input.Application

	result := h.schema.ValidateGo(app)
	if result.Valid {
		validation.ValidateMinimumAge(result, "date_of_birth", app.DateOfBirth, h.config.MinimumAge, h.now())
	}
	if !result.Valid {
		return nil, errors.NewValidationFailedError(result.Summary())
	}

	customer, err := h.service.Onboard(ctx, app)
	if err != nil {
		return nil, err
	}

	addressIDs := make([]int64, 0, len(customer.Addresses))
	for _, a := range customer.Addresses {
		addressIDs = append(addressIDs, a.ID)
	}

	h.logger.Info("customer onboarded", map[string]interface{}{
		"customerId": customer.ID,
		"riskScore":  customer.RiskScore,
	})

	return &Output{
		CustomerID: customer.ID,
		RiskScore:  customer.RiskScore,
		Status:     StatusOnboarded,
		AddressIDs: addressIDs,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}
