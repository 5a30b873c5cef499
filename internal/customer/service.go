// internal/customer/service.go
package customer

import (
	"context"
	stderrors "errors"

	"customer-onboarding/internal/common/errors"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/metrics"
	"customer-onboarding/internal/common/observability"
	"customer-onboarding/internal/models"
	"customer-onboarding/internal/risk/assessment"
	"customer-onboarding/internal/risk/fraudapi"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type Repository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, app *models.CustomerApplication, riskScore int) (*models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context, limit, offset int) ([]models.Customer, error)
}

type Assessor interface {
	Assess(ctx context.Context, app *models.CustomerApplication) (assessment.Outcome, error)
}

type Locker interface {
	Acquire(ctx context.Context, email string) (string, error)
	Release(ctx context.Context, email, token string) error
}

type Notifier interface {
	CustomerOnboarded(ctx context.Context, customer *models.Customer) error
}

// Service onboards customers. Every error it returns is an
// *errors.StandardError.
type Service struct {
	repo     Repository
	assessor Assessor
	locker   Locker
	notifier Notifier
	logger   logger.Logger
}

func NewService(repo Repository, assessor Assessor, locker Locker, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		assessor: assessor,
		locker:   locker,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "onboarding"}),
	}
}

// Onboard runs the risk pipeline for app and persists the customer when it is
// accepted. Duplicate emails are rejected before any risk work.
func (s *Service) Onboard(ctx context.Context, app *models.CustomerApplication) (customer *models.Customer, err error) {
	ctx, span := observability.StartSpan(ctx, "customer.Onboard")
	defer func() {
		observability.EndSpan(span, err)
		metrics.OnboardingRequests.WithLabelValues(resultLabel(err)).Inc()
	}()

	token, err := s.locker.Acquire(ctx, app.Email)
	if err != nil {
		if stderrors.Is(err, ErrLockHeld) {
			s.logger.Warn("onboarding already in progress", map[string]interface{}{"email": app.Email})
			return nil, errors.NewCustomerConflictError(app.Email, err)
		}
		return nil, errors.NewLockUnavailableError(err)
	}

	customer, err = s.onboardLocked(ctx, app)

	if relErr := s.locker.Release(context.WithoutCancel(ctx), app.Email, token); relErr != nil {
		s.logger.Warn("failed to release onboarding lock", map[string]interface{}{
			"error": relErr,
			"email": app.Email,
		})
	}
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if nErr := s.notifier.CustomerOnboarded(context.WithoutCancel(ctx), customer); nErr != nil {
			s.logger.Warn("onboarding notification failed", map[string]interface{}{
				"error":      nErr,
				"customerId": customer.ID,
			})
		}
	}
	return customer, nil
}

func (s *Service) onboardLocked(ctx context.Context, app *models.CustomerApplication) (*models.Customer, error) {
	exists, err := s.repo.ExistsByEmail(ctx, app.Email)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("customer_exists", err)
	}
	if exists {
		s.logger.Info("duplicate customer email", map[string]interface{}{"email": app.Email})
		return nil, errors.NewCustomerConflictError(app.Email, ErrConflict)
	}

	outcome, err := s.assessor.Assess(ctx, app)
	if err != nil {
		return nil, s.assessmentError(err)
	}
	if !outcome.Accepted {
		s.logger.Info("customer rejected by risk assessment", map[string]interface{}{
			"email":  app.Email,
			"reason": string(outcome.Reason),
		})
		return nil, errors.NewRiskRejectedError(string(outcome.Reason), outcome.Err())
	}

	customer, err := s.repo.Create(ctx, app, outcome.Score)
	if err != nil {
		if stderrors.Is(err, ErrConflict) {
			return nil, errors.NewCustomerConflictError(app.Email, err)
		}
		s.logger.Error("customer insert failed", map[string]interface{}{
			"error": err,
			"email": app.Email,
		})
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("customer onboarded", map[string]interface{}{
		"customerId": customer.ID,
		"riskScore":  customer.RiskScore,
		"addresses":  len(customer.Addresses),
	})
	return customer, nil
}

func (s *Service) assessmentError(err error) error {
	if stderrors.Is(err, fraudapi.ErrServiceUnavailable) {
		return errors.NewFraudServiceUnavailableError(err)
	}
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return errors.NewInternalError(err)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NewCustomerNotFoundError(id, err)
		}
		return nil, errors.NewQueryExecutionFailedError("customer_get", err)
	}
	return customer, nil
}

// List clamps limit to (0, MaxListLimit] and offset to >= 0.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	customers, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("customer_list", err)
	}
	return customers, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "created"
	}
	var stdErr *errors.StandardError
	if !stderrors.As(err, &stdErr) {
		return "error"
	}
	switch stdErr.Code {
	case errors.ErrCodeCustomerConflict:
		return "conflict"
	case errors.ErrCodeRiskRejected:
		return "rejected"
	case errors.ErrCodeFraudServiceUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}
