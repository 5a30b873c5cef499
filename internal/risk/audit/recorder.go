// internal/risk/audit/recorder.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"customer-onboarding/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// Decision is one risk assessment result as stored in the audit index.
type Decision struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Accepted       bool      `json:"accepted"`
	Reason         string    `json:"reason,omitempty"`
	Score          int       `json:"score"`
	FraudScore     *int      `json:"fraudScore,omitempty"`
	FraudCategory  string    `json:"fraudCategory,omitempty"`
	HeuristicScore *int      `json:"heuristicScore,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type ElasticsearchRecorder struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchRecorder(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchRecorder {
	return &ElasticsearchRecorder{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "decision-audit"}),
	}
}

// Record indexes the decision, assigning an id and timestamp when unset.
func (r *ElasticsearchRecorder) Record(ctx context.Context, d Decision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: d.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("index decision: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index decision: %s", res.Status())
	}

	r.logger.Debug("decision indexed", map[string]interface{}{
		"decisionId": d.ID,
		"index":      r.index,
	})
	return nil
}
