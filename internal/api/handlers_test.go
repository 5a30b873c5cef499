package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"customer-onboarding/internal/common/config"
	"customer-onboarding/internal/common/errors"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/fraudmock"
	"customer-onboarding/internal/models"
	"customer-onboarding/internal/risk/fraudapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCustomers struct {
	onboard    func(app *models.CustomerApplication) (*models.Customer, error)
	get        func(id int64) (*models.Customer, error)
	list       func(limit, offset int) ([]models.Customer, error)
	onboardHit int
}

func (s *stubCustomers) Onboard(ctx context.Context, app *models.CustomerApplication) (*models.Customer, error) {
	s.onboardHit++
	return s.onboard(app)
}

func (s *stubCustomers) Get(ctx context.Context, id int64) (*models.Customer, error) {
	return s.get(id)
}

func (s *stubCustomers) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	return s.list(limit, offset)
}

type stubBlacklist struct {
	created *models.BlacklistRecord
}

func (s *stubBlacklist) Create(ctx context.Context, record *models.BlacklistRecord) (*models.BlacklistRecord, error) {
	s.created = record
	out := *record
	out.ID = 3
	return &out, nil
}

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, customers *stubCustomers, blacklist *stubBlacklist, checks ...ReadinessCheck) http.Handler {
	fraud := fraudmock.NewScorer(config.MockRulesConfig{
		HighRiskNames:     []string{"test", "fraud", "admin", "scam"},
		HighRiskCountries: []string{"Narnia", "Fraudland", "Scamistan"},
		SuspiciousDomains: []string{"tempmail.com", "mailinator.com", "demo.com", "fraud.com"},
		MinAge:            18,
		MaxAge:            99,
	}).WithClock(func() time.Time { return testNow })

	return NewRouter(logger.NewTestLogger(t), Dependencies{
		Customers:  customers,
		Blacklist:  blacklist,
		FraudMock:  fraud,
		Readiness:  checks,
		MinimumAge: 18,
		Now:        func() time.Time { return testNow },
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const validCustomer = `{"name":"Alice","email":"alice@x.com","phone":"07123456789","date_of_birth":"1990-01-01",
	"addresses":[{"street":"1 High St","city":"Leeds","state":"WY","zip_code":"LS1","country":"UK"}]}`

// ==========================
// POST /customers/
// ==========================

func TestCreateCustomer_Created(t *testing.T) {
	customers := &stubCustomers{onboard: func(app *models.CustomerApplication) (*models.Customer, error) {
		assert.Equal(t, "Alice", app.Name)
		assert.Equal(t, "07123456789", *app.Phone)
		require.Len(t, app.Addresses, 1)
		return &models.Customer{
			ID: 7, Name: app.Name, Email: app.Email, Phone: app.Phone, DateOfBirth: app.DateOfBirth, RiskScore: 10,
			Addresses: []models.CustomerAddress{{ID: 100, Address: app.Addresses[0]}},
		}, nil
	}}
	router := newTestRouter(t, customers, &stubBlacklist{})

	for _, path := range []string{"/customers/", "/customers"} {
		rec := do(router, http.MethodPost, path, validCustomer)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var body models.Customer
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int64(7), body.ID)
		assert.Equal(t, int64(100), body.Addresses[0].ID)
		assert.Nil(t, body.NationalID)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	}
}

func TestCreateCustomer_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", errors.NewCustomerConflictError("alice@x.com", nil), http.StatusConflict, "CUSTOMER_CONFLICT"},
		{"risk rejected", errors.NewRiskRejectedError("blacklisted", nil), http.StatusUnprocessableEntity, "RISK_REJECTED"},
		{"fraud unavailable", errors.NewFraudServiceUnavailableError(fraudapi.ErrServiceUnavailable), http.StatusServiceUnavailable, "FRAUD_SERVICE_UNAVAILABLE"},
		{"unexpected", stderrors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers := &stubCustomers{onboard: func(app *models.CustomerApplication) (*models.Customer, error) {
				return nil, tt.err
			}}
			rec := do(newTestRouter(t, customers, &stubBlacklist{}), http.MethodPost, "/customers/", validCustomer)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotContains(t, body, "metadata")
		})
	}
}

func TestCreateCustomer_UpstreamErrorsNotEchoed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"fraud peer", errors.NewFraudServiceUnavailableError(fmt.Errorf("%w: connect: dial tcp 10.1.2.3:9000: connection refused", fraudapi.ErrServiceUnavailable))},
		{"database", errors.NewQueryExecutionFailedError("customer_exists", stderrors.New(`pq: password authentication failed for user "onboarding" at 10.1.2.3`))},
		{"unexpected", stderrors.New("open /etc/secrets/10.1.2.3: permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers := &stubCustomers{onboard: func(app *models.CustomerApplication) (*models.Customer, error) {
				return nil, tt.err
			}}
			rec := do(newTestRouter(t, customers, &stubBlacklist{}), http.MethodPost, "/customers/", validCustomer)

			assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
			assert.NotContains(t, rec.Body.String(), "10.1.2.3")
		})
	}
}

func TestCreateCustomer_RejectionReasonWithheld(t *testing.T) {
	customers := &stubCustomers{onboard: func(app *models.CustomerApplication) (*models.Customer, error) {
		return nil, errors.NewRiskRejectedError("heuristic-score-high", nil)
	}}
	rec := do(newTestRouter(t, customers, &stubBlacklist{}), http.MethodPost, "/customers/", validCustomer)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotContains(t, rec.Body.String(), "heuristic-score-high")
	assert.Contains(t, rec.Body.String(), "Customer failed risk assessment")
}

func TestCreateCustomer_ValidationRunsBeforeService(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing email", `{"name":"Alice"}`},
		{"bad phone", `{"name":"Alice","email":"alice@x.com","phone":"12345"}`},
		{"underage", `{"name":"Alice","email":"alice@x.com","date_of_birth":"2010-01-01"}`},
		{"impossible date", `{"name":"Alice","email":"alice@x.com","date_of_birth":"1990-02-30"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers := &stubCustomers{}
			rec := do(newTestRouter(t, customers, &stubBlacklist{}), http.MethodPost, "/customers/", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec)["code"])
			assert.Zero(t, customers.onboardHit)
		})
	}
}

// ==========================
// GET /customers
// ==========================

func TestGetCustomer(t *testing.T) {
	customers := &stubCustomers{get: func(id int64) (*models.Customer, error) {
		if id == 7 {
			return &models.Customer{ID: 7, Name: "Alice"}, nil
		}
		return nil, errors.NewCustomerNotFoundError(id, nil)
	}}
	router := newTestRouter(t, customers, &stubBlacklist{})

	rec := do(router, http.MethodGet, "/customers/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/customers/8", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", decodeError(t, rec)["code"])

	rec = do(router, http.MethodGet, "/customers/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCustomers(t *testing.T) {
	var gotLimit, gotOffset int
	customers := &stubCustomers{list: func(limit, offset int) ([]models.Customer, error) {
		gotLimit, gotOffset = limit, offset
		return []models.Customer{{ID: 1}, {ID: 2}}, nil
	}}
	router := newTestRouter(t, customers, &stubBlacklist{})

	rec := do(router, http.MethodGet, "/customers/?limit=2&offset=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gotLimit)
	assert.Equal(t, 4, gotOffset)

	var body []models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)

	rec = do(router, http.MethodGet, "/customers?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestRouter(t, &stubCustomers{}, &stubBlacklist{}), http.MethodDelete, "/customers/7", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// POST /blacklist/
// ==========================

func TestCreateBlacklistEntry(t *testing.T) {
	blacklist := &stubBlacklist{}
	router := newTestRouter(t, &stubCustomers{}, blacklist)

	rec := do(router, http.MethodPost, "/blacklist/", `{"name":"Mallory","email":"m@x.com","phone":null}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Mallory", blacklist.created.Name)
	assert.Nil(t, blacklist.created.Phone)

	rec = do(router, http.MethodPost, "/blacklist/", `{"email":"m@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// POST /fraud/fraud-detection
// ==========================

func TestDetectFraud(t *testing.T) {
	router := newTestRouter(t, &stubCustomers{}, &stubBlacklist{})

	rec := do(router, http.MethodPost, "/fraud/fraud-detection",
		`{"name":"Scam Artist","address":"1 Lamp Post, Narnia","date_of_birth":"1990-01-01","email":"s@fraud.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result fraudmock.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, "HIGH", result.Category)
	assert.Len(t, result.Reason, 3)

	rec = do(router, http.MethodPost, "/fraud/fraud-detection", `{"name":"X","address":"short","email":"s@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/fraud/fraud-detection",
		`{"name":"Jane","address":"1 High St, Leeds","date_of_birth":"1990-13-01","email":"j@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectFraud_NotMountedWithoutScorer(t *testing.T) {
	router := NewRouter(logger.NewNoOpLogger(), Dependencies{Customers: &stubCustomers{}, Blacklist: &stubBlacklist{}})

	rec := do(router, http.MethodPost, "/fraud/fraud-detection", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Health, readiness, metrics
// ==========================

func TestHealthAndReady(t *testing.T) {
	healthy := ReadinessCheck{Name: "postgres", Probe: func(ctx context.Context) error { return nil }}
	router := newTestRouter(t, &stubCustomers{}, &stubBlacklist{}, healthy)

	rec := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := ReadinessCheck{Name: "redis", Probe: func(ctx context.Context) error { return fmt.Errorf("dial tcp: refused") }}
	router = newTestRouter(t, &stubCustomers{}, &stubBlacklist{}, healthy, failing)

	rec = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Contains(t, checks["redis"], "refused")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubCustomers{}, &stubBlacklist{})
	do(router, http.MethodGet, "/health", "")

	rec := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(t, &stubCustomers{}, &stubBlacklist{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}
