// internal/risk/assessment/outcome.go
package assessment

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonBlacklisted             Reason = "blacklisted"
	ReasonFraudAPIHigh            Reason = "fraud-api-high"
	ReasonFraudAPIMediumHighScore Reason = "fraud-api-medium-high-score"
	ReasonHeuristicScoreHigh      Reason = "heuristic-score-high"
)

// ErrHighRisk matches every *HighRiskError under errors.Is.
var ErrHighRisk = errors.New("HIGH_RISK")

// Outcome is either an accepted score or a rejection with a reason.
type Outcome struct {
	Accepted bool
	Score    int
	Reason   Reason
}

func Accepted(score int) Outcome {
	return Outcome{Accepted: true, Score: score}
}

func Rejected(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// Err returns nil for an accepted outcome and a *HighRiskError otherwise.
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	return &HighRiskError{Reason: o.Reason}
}

type HighRiskError struct {
	Reason Reason
}

func (e *HighRiskError) Error() string {
	return fmt.Sprintf("high risk: %s", e.Reason)
}

func (e *HighRiskError) Is(target error) bool {
	return target == ErrHighRisk
}
