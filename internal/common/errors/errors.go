// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeCustomerConflict ErrorCode = "CUSTOMER_CONFLICT"
	ErrCodeCustomerNotFound ErrorCode = "CUSTOMER_NOT_FOUND"
	ErrCodeRiskRejected     ErrorCode = "RISK_REJECTED"

	ErrCodeFraudServiceUnavailable ErrorCode = "FRAUD_SERVICE_UNAVAILABLE"
	ErrCodeBlacklistCheckFailed    ErrorCode = "BLACKLIST_CHECK_FAILED"

	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeLockUnavailable ErrorCode = "LOCK_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the sentinel or driver error the StandardError was built
// from, so errors.Is keeps working across layers.
func (e *StandardError) Unwrap() error {
	return e.cause
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// Constructors
// ==========================

func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCustomerConflictError(email string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerConflict,
		Message:   "Customer with this email already exists",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewCustomerNotFoundError(id int64, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerNotFound,
		Message:   "Customer not found",
		Details:   fmt.Sprintf("customerId: %d", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewRiskRejectedError keeps the rejection reason in Metadata only. Callers
// see the generic message.
func NewRiskRejectedError(reason string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRiskRejected,
		Message:   "Customer failed risk assessment",
		Retryable: false,
		Metadata:  map[string]interface{}{"reason": reason},
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewFraudServiceUnavailableError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFraudServiceUnavailable,
		Message:   "Fraud detection service is unavailable",
		Details:   "fraud scoring request failed",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewBlacklistCheckFailedError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBlacklistCheckFailed,
		Message:   "Blacklist lookup failed",
		Details:   "blacklist lookup could not be completed",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewQueryExecutionFailedError(queryType string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   "queryType: " + queryType,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewDatabaseInsertFailedError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   "insert could not be completed",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewLockUnavailableError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLockUnavailable,
		Message:   "Onboarding lock could not be acquired",
		Details:   "onboarding lock store unreachable",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInternalError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// Mappings
// ==========================

var httpStatusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed:        http.StatusBadRequest,
	ErrCodeCustomerConflict:        http.StatusConflict,
	ErrCodeCustomerNotFound:        http.StatusNotFound,
	ErrCodeRiskRejected:            http.StatusUnprocessableEntity,
	ErrCodeFraudServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeLockUnavailable:         http.StatusServiceUnavailable,
	ErrCodeBlacklistCheckFailed:    http.StatusInternalServerError,
	ErrCodeQueryExecutionFailed:    http.StatusInternalServerError,
	ErrCodeDatabaseInsertFailed:    http.StatusInternalServerError,
}

func HTTPStatus(code ErrorCode) int {
	if status, ok := httpStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:        "VALIDATION_FAILED",
	ErrCodeCustomerConflict:        "CUSTOMER_CONFLICT",
	ErrCodeCustomerNotFound:        "CUSTOMER_NOT_FOUND",
	ErrCodeRiskRejected:            "RISK_REJECTED",
	ErrCodeFraudServiceUnavailable: "FRAUD_SERVICE_UNAVAILABLE",
	ErrCodeBlacklistCheckFailed:    "BLACKLIST_CHECK_FAILED",
	ErrCodeQueryExecutionFailed:    "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseInsertFailed:    "DATABASE_INSERT_FAILED",
	ErrCodeLockUnavailable:         "LOCK_UNAVAILABLE",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBlacklistCheckFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed:
		return 3 // transient storage errors

	case ErrCodeFraudServiceUnavailable,
		ErrCodeLockUnavailable:
		return 2

	default:
		return 0 // business outcomes
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	// The rejection reason is for workflow routing, never for API callers.
	if reason, ok := stdErr.Metadata["reason"]; ok {
		vars["rejectionReason"] = reason
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "RISK") || strings.Contains(codeStr, "FRAUD") || strings.Contains(codeStr, "BLACKLIST"):
		return "RISK"
	case strings.HasPrefix(codeStr, "CUSTOMER"):
		return "CUSTOMER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "LOCK"):
		return "LOCK"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
