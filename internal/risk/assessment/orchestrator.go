// internal/risk/assessment/orchestrator.go
package assessment

import (
	"context"

	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/metrics"
	"customer-onboarding/internal/common/observability"
	"customer-onboarding/internal/models"
	"customer-onboarding/internal/risk/audit"
	"customer-onboarding/internal/risk/fraudapi"

	"go.opentelemetry.io/otel/attribute"
)

type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, app *models.CustomerApplication) (bool, error)
}

type FraudScorer interface {
	Score(ctx context.Context, app *models.CustomerApplication) (fraudapi.Result, error)
}

type HeuristicScorer interface {
	Score(app *models.CustomerApplication) int
}

type Recorder interface {
	Record(ctx context.Context, d audit.Decision) error
}

// Thresholds are exclusive: a score equal to the threshold passes.
type Thresholds struct {
	MediumScore int
	Heuristic   int
}

func DefaultThresholds() Thresholds {
	return Thresholds{MediumScore: 55, Heuristic: 30}
}

// Orchestrator runs blacklist, fraud and heuristic checks in order, stopping
// at the first rejection.
type Orchestrator struct {
	blacklist  BlacklistChecker
	fraud      FraudScorer
	heuristic  HeuristicScorer
	recorder   Recorder
	thresholds Thresholds
	logger     logger.Logger
}

func NewOrchestrator(blacklist BlacklistChecker, fraud FraudScorer, heuristic HeuristicScorer, thresholds Thresholds, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		blacklist:  blacklist,
		fraud:      fraud,
		heuristic:  heuristic,
		thresholds: thresholds,
		logger:     log.WithFields(map[string]interface{}{"component": "risk-assessment"}),
	}
}

// WithRecorder sets the audit sink every decision is written to.
func (o *Orchestrator) WithRecorder(r Recorder) *Orchestrator {
	o.recorder = r
	return o
}

// Assess returns the outcome for app. Errors from the blacklist store or the
// fraud service are returned unchanged and no outcome is produced.
func (o *Orchestrator) Assess(ctx context.Context, app *models.CustomerApplication) (outcome Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "assessment.Assess")
	defer func() {
		span.SetAttributes(
			attribute.Bool("risk.accepted", outcome.Accepted),
			attribute.String("risk.reason", string(outcome.Reason)),
		)
		observability.EndSpan(span, err)
	}()

	decision := audit.Decision{Email: app.Email}

	matched, err := o.blacklist.IsBlacklisted(ctx, app)
	if err != nil {
		return Outcome{}, err
	}
	if matched {
		return o.decide(ctx, Rejected(ReasonBlacklisted), decision), nil
	}

	fraud, err := o.fraud.Score(ctx, app)
	if err != nil {
		return Outcome{}, err
	}
	decision.FraudScore = &fraud.Score
	decision.FraudCategory = fraud.Category

	switch {
	case fraud.Category == fraudapi.CategoryHigh:
		return o.decide(ctx, Rejected(ReasonFraudAPIHigh), decision), nil
	case fraud.Category == fraudapi.CategoryMedium && fraud.Score > o.thresholds.MediumScore:
		return o.decide(ctx, Rejected(ReasonFraudAPIMediumHighScore), decision), nil
	}

	score := o.heuristic.Score(app)
	decision.HeuristicScore = &score
	if score > o.thresholds.Heuristic {
		return o.decide(ctx, Rejected(ReasonHeuristicScoreHigh), decision), nil
	}

	return o.decide(ctx, Accepted(score), decision), nil
}

func (o *Orchestrator) decide(ctx context.Context, outcome Outcome, decision audit.Decision) Outcome {
	label := "accepted"
	if !outcome.Accepted {
		label = "rejected"
	}
	metrics.RiskDecisions.WithLabelValues(label, string(outcome.Reason)).Inc()

	fields := map[string]interface{}{
		"email":    decision.Email,
		"decision": label,
		"score":    outcome.Score,
	}
	if outcome.Reason != "" {
		fields["reason"] = string(outcome.Reason)
	}
	o.logger.Info("risk assessment completed", fields)

	if o.recorder != nil {
		decision.Accepted = outcome.Accepted
		decision.Score = outcome.Score
		decision.Reason = string(outcome.Reason)
		if err := o.recorder.Record(ctx, decision); err != nil {
			o.logger.Warn("decision audit failed", map[string]interface{}{
				"error": err,
				"email": decision.Email,
			})
		}
	}
	return outcome
}
