// internal/risk/fraudapi/client.go
package fraudapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"time"

	"customer-onboarding/internal/common/config"
	httpclient "customer-onboarding/internal/common/http"
	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/metrics"
	"customer-onboarding/internal/common/observability"
	"customer-onboarding/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	CategoryLow    = "LOW"
	CategoryMedium = "MEDIUM"
	CategoryHigh   = "HIGH"

	UnknownAddress = "Unknown Address"
)

// ErrServiceUnavailable covers every way the remote scorer can fail to
// produce a usable answer.
var ErrServiceUnavailable = errors.New("FRAUD_SERVICE_UNAVAILABLE")

// Failure kinds, used only for logs and metrics.
const (
	kindConnect = "connect"
	kindTimeout = "timeout"
	kindStatus  = "status"
	kindDecode  = "decode"
	kindRequest = "request"
)

type Result struct {
	Score    int    `json:"score"`
	Category string `json:"category"`
}

type Request struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
	Email       string  `json:"email"`
}

type response struct {
	Score    *float64 `json:"score"`
	Category *string  `json:"category"`
}

type Client struct {
	url    string
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg config.FraudAPIConfig, log logger.Logger) *Client {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		http:   httpclient.NewClient(timeout),
		logger: log.WithFields(map[string]interface{}{"component": "fraud-api"}),
	}
}

// NewRequest builds the wire payload. Only the first address is sent.
func NewRequest(app *models.CustomerApplication) Request {
	address := UnknownAddress
	if len(app.Addresses) > 0 {
		address = app.Addresses[0].Flatten()
	}
	return Request{
		Name:        app.Name,
		Address:     address,
		DateOfBirth: app.DateOfBirth,
		Email:       app.Email,
	}
}

// Score asks the remote service for a fraud score. Any failure is returned
// wrapping ErrServiceUnavailable.
func (c *Client) Score(ctx context.Context, app *models.CustomerApplication) (result Result, err error) {
	ctx, span := observability.StartSpan(ctx, "fraudapi.Score", attribute.String("fraud.url", c.url))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	defer func() {
		metrics.FraudAPIDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.http.PostJSON(ctx, c.url, NewRequest(app))
	if err != nil {
		return Result{}, c.unavailable(classify(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, c.unavailable(kindStatus, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, c.unavailable(kindDecode, err)
	}

	result = c.normalize(payload)
	metrics.FraudAPIRequests.WithLabelValues("ok").Inc()
	c.logger.Debug("fraud score received", map[string]interface{}{
		"score":    result.Score,
		"category": result.Category,
	})
	return result, nil
}

func (c *Client) normalize(payload response) Result {
	result := Result{Score: 0, Category: CategoryLow}

	if payload.Score != nil {
		result.Score = clampScore(*payload.Score)
	}

	if payload.Category != nil {
		category := strings.ToUpper(strings.TrimSpace(*payload.Category))
		switch category {
		case CategoryLow, CategoryMedium, CategoryHigh:
			result.Category = category
		default:
			c.logger.Warn("unknown fraud category, treating as LOW", map[string]interface{}{
				"category": *payload.Category,
			})
		}
	}
	return result
}

func (c *Client) unavailable(kind string, err error) error {
	metrics.FraudAPIRequests.WithLabelValues(kind).Inc()
	c.logger.Error("fraud service unavailable", map[string]interface{}{
		"kind":  kind,
		"error": err,
	})
	return fmt.Errorf("%w: %s: %v", ErrServiceUnavailable, kind, err)
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return kindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return kindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return kindConnect
	}
	return kindRequest
}

// clampScore bounds v to 0-100 before the int conversion.
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, v)))
}
