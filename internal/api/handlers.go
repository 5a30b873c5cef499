// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"customer-onboarding/internal/common/errors"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/validation"
	"customer-onboarding/internal/fraudmock"
	"customer-onboarding/internal/models"
	"customer-onboarding/internal/risk/fraudapi"
)

const maxBodyBytes = 1 << 20

type CustomerService interface {
	Onboard(ctx context.Context, app *models.CustomerApplication) (*models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context, limit, offset int) ([]models.Customer, error)
}

type BlacklistStore interface {
	Create(ctx context.Context, record *models.BlacklistRecord) (*models.BlacklistRecord, error)
}

type FraudScorer interface {
	Score(req fraudapi.Request) (fraudmock.Result, error)
}

type handlers struct {
	logger          logger.Logger
	deps            Dependencies
	customerSchema  *validation.Schema
	blacklistSchema *validation.Schema
	fraudSchema     *validation.Schema
}

func newHandlers(log logger.Logger, deps Dependencies) *handlers {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &handlers{
		logger:          log.WithFields(map[string]interface{}{"component": "api"}),
		deps:            deps,
		customerSchema:  validation.MustSchema(validation.CustomerApplicationSchema),
		blacklistSchema: validation.MustSchema(validation.BlacklistEntrySchema),
		fraudSchema:     validation.MustSchema(validation.FraudRequestSchema),
	}
}

// errorResponse leaves StandardError metadata out so rejection reasons never
// reach callers.
type errorResponse struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Details   string           `json:"details,omitempty"`
	Retryable bool             `json:"retryable"`
	Timestamp time.Time        `json:"timestamp"`
}

// ==========================
// Customers
// ==========================

func (h *handlers) createCustomer(w http.ResponseWriter, r *http.Request) {
	var app models.CustomerApplication
	if !h.decodeValid(w, r, h.customerSchema, &app) {
		return
	}

	result := &validation.ValidationResult{Valid: true}
	validation.ValidateMinimumAge(result, "date_of_birth", app.DateOfBirth, h.deps.MinimumAge, h.deps.Now())
	if !result.Valid {
		h.writeError(w, errors.NewValidationFailedError(result.Summary()))
		return
	}

	customer, err := h.deps.Customers.Onboard(r.Context(), &app)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *handlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.writeError(w, errors.NewValidationFailedError(err.Error()))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, errors.NewValidationFailedError(err.Error()))
		return
	}

	customers, err := h.deps.Customers.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *handlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, errors.NewValidationFailedError("id: must be a positive integer"))
		return
	}

	customer, err := h.deps.Customers.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// ==========================
// Blacklist
// ==========================

func (h *handlers) createBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	var record models.BlacklistRecord
	if !h.decodeValid(w, r, h.blacklistSchema, &record) {
		return
	}

	created, err := h.deps.Blacklist.Create(r.Context(), &record)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ==========================
// Mock fraud service
// ==========================

func (h *handlers) detectFraud(w http.ResponseWriter, r *http.Request) {
	var req fraudapi.Request
	if !h.decodeValid(w, r, h.fraudSchema, &req) {
		return
	}

	result, err := h.deps.FraudMock.Score(req)
	if err != nil {
		h.writeError(w, errors.NewValidationFailedError(fmt.Sprintf("fraud assessment failed: %v", err)))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ==========================
// Helpers
// ==========================

// decodeValid reads the body, validates it against schema and decodes it into
// dst. It writes the error response itself and reports false on failure.
func (h *handlers) decodeValid(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, errors.NewValidationFailedError(fmt.Sprintf("read body: %v", err)))
		return false
	}

	if result := schema.ValidateBytes(body); !result.Valid {
		h.writeError(w, errors.NewValidationFailedError(result.Summary()))
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		h.writeError(w, errors.NewValidationFailedError(fmt.Sprintf("decode body: %v", err)))
		return false
	}
	return true
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"code":   string(stdErr.Code),
		"status": status,
		"error":  err,
	}
	if reason, ok := stdErr.Metadata["reason"]; ok {
		fields["reason"] = reason
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Info("request rejected", fields)
	}

	respondJSON(w, status, errorResponse{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Timestamp: stdErr.Timestamp,
	})
}

var errNegative = stderrors.New("must not be negative")

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", key)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: %w", key, errNegative)
	}
	return v, nil
}
