// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customer-onboarding/internal/api"
	"customer-onboarding/internal/common/config"
	"customer-onboarding/internal/common/database"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/customer"
	"customer-onboarding/internal/customer/notify"
	"customer-onboarding/internal/fraudmock"
	"customer-onboarding/internal/models"
	"customer-onboarding/internal/risk/assessment"
	"customer-onboarding/internal/risk/blacklist"
	"customer-onboarding/internal/risk/fraudapi"
	"customer-onboarding/internal/risk/heuristic"
)

// Runs against real PostgreSQL and Redis. Enable with E2E_TESTS=1.
func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") != "1" {
		fmt.Println("skipping e2e tests: set E2E_TESTS=1 to run against local PostgreSQL and Redis")
		os.Exit(0)
	}

	setDefaultEnv("DB_HOST", "localhost")
	setDefaultEnv("DB_USER", "onboarding")
	setDefaultEnv("DB_PASSWORD", "onboarding")
	setDefaultEnv("REDIS_ADDRESS", "localhost:6379")
	setDefaultEnv("FRAUD_API_URL", "http://localhost:8080/fraud/fraud-detection")

	os.Exit(m.Run())
}

func setDefaultEnv(key, value string) {
	if os.Getenv(key) == "" {
		os.Setenv(key, value)
	}
}

type environment struct {
	server *httptest.Server
	pg     *database.PostgresClient
	redis  *database.RedisClient
}

func setupEnvironment(t *testing.T) *environment {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	redis, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	require.NoError(t, redis.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { redis.Close() })

	migration, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pg.DB.ExecContext(ctx, string(migration))
	require.NoError(t, err)
	_, err = pg.DB.ExecContext(ctx, `TRUNCATE addresses, customers, blacklist RESTART IDENTITY`)
	require.NoError(t, err)

	fraudServer := httptest.NewServer(api.NewRouter(log, api.Dependencies{
		FraudMock: fraudmock.NewScorer(cfg.Risk.MockRules),
	}))
	t.Cleanup(fraudServer.Close)

	cfg.FraudAPI.URL = fraudServer.URL + "/fraud/fraud-detection"
	cfg.FraudAPI.Timeout = 5000

	blacklistRepo := blacklist.NewRepository(pg.DB, log)
	orchestrator := assessment.NewOrchestrator(
		blacklistRepo,
		fraudapi.NewClient(cfg.FraudAPI, log),
		heuristic.NewScorer(heuristic.DefaultRules(), log),
		assessment.DefaultThresholds(),
		log,
	)
	customers := customer.NewService(
		customer.NewPostgresRepository(pg.DB),
		orchestrator,
		customer.NewRedisLocker(redis.Client, 30*time.Second),
		notify.NewNotifier(nil, nil, log),
		log,
	)

	server := httptest.NewServer(api.NewRouter(log, api.Dependencies{
		Customers:  customers,
		Blacklist:  blacklistRepo,
		MinimumAge: cfg.Onboarding.MinimumAge,
		Readiness: []api.ReadinessCheck{
			{Name: "postgres", Probe: pg.Ping},
			{Name: "redis", Probe: redis.Ping},
		},
	}))
	t.Cleanup(server.Close)

	return &environment{server: server, pg: pg, redis: redis}
}

func (e *environment) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *environment) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestFullE2E(t *testing.T) {
	env := setupEnvironment(t)

	t.Run("ready", func(t *testing.T) {
		resp := env.get(t, "/ready")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	var created models.Customer

	t.Run("low risk customer is onboarded", func(t *testing.T) {
		resp := env.post(t, "/customers", map[string]interface{}{
			"name":          "Jane Doe",
			"email":         "jane@shop.io",
			"phone":         "07123456789",
			"date_of_birth": "1980-01-01",
			"addresses": []map[string]string{
				{"street": "1 High St", "city": "Leeds", "state": "WY", "zip_code": "LS1 1AA", "country": "UK"},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decode(t, resp, &created)

		assert.NotZero(t, created.ID)
		assert.Equal(t, 5, created.RiskScore)
		require.Len(t, created.Addresses, 1)
		assert.Equal(t, "Leeds", created.Addresses[0].City)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := env.post(t, "/customers", map[string]interface{}{
			"name":  "Jane Again",
			"email": "jane@shop.io",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("customer can be fetched", func(t *testing.T) {
		resp := env.get(t, fmt.Sprintf("/customers/%d", created.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var fetched models.Customer
		decode(t, resp, &fetched)
		assert.Equal(t, created.Email, fetched.Email)
		assert.Len(t, fetched.Addresses, 1)
	})

	t.Run("unknown customer is not found", func(t *testing.T) {
		resp := env.get(t, "/customers/999999")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("blacklisted identity is rejected", func(t *testing.T) {
		resp := env.post(t, "/blacklist", map[string]interface{}{
			"name":  "Mallory",
			"email": "mallory@shop.io",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = env.post(t, "/customers", map[string]interface{}{
			"name":  "Mallory",
			"email": "mallory@shop.io",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body map[string]interface{}
		decode(t, resp, &body)
		assert.Equal(t, "RISK_REJECTED", body["code"])
		assert.NotContains(t, body, "metadata")
	})

	t.Run("high fraud category is rejected", func(t *testing.T) {
		resp := env.post(t, "/customers", map[string]interface{}{
			"name":  "Test Scam",
			"email": "scam@tempmail.com",
			"addresses": []map[string]string{
				{"street": "1 Lamp Post Way", "city": "Cair", "state": "North", "zip_code": "N1", "country": "Narnia"},
			},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("high heuristic score is rejected", func(t *testing.T) {
		resp := env.post(t, "/customers", map[string]interface{}{
			"name":          "Young Person",
			"email":         "young@example.com",
			"date_of_birth": time.Now().AddDate(-20, 0, 0).Format("2006-01-02"),
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("underage applicant fails validation", func(t *testing.T) {
		resp := env.post(t, "/customers", map[string]interface{}{
			"name":          "Too Young",
			"email":         "kid@shop.io",
			"date_of_birth": time.Now().AddDate(-10, 0, 0).Format("2006-01-02"),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("only accepted customers are listed", func(t *testing.T) {
		resp := env.get(t, "/customers")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var customers []models.Customer
		decode(t, resp, &customers)
		require.Len(t, customers, 1)
		assert.Equal(t, "jane@shop.io", customers[0].Email)
	})

	t.Run("onboarding lock is released", func(t *testing.T) {
		keys, err := env.redis.Client.Keys(context.Background(), "onboarding:lock:*").Result()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
