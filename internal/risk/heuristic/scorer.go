// internal/risk/heuristic/scorer.go
package heuristic

import (
	"strings"
	"time"

	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/common/validation"
	"customer-onboarding/internal/models"
)

// Rules is the immutable rule set of the heuristic scorer.
type Rules struct {
	YoungAge              int
	MiddleAge             int
	YoungPoints           int
	MiddlePoints          int
	SeniorPoints          int
	TrustedPhonePrefix    string
	UntrustedPhonePoints  int
	SuspiciousEmailSuffix string
	SuspiciousEmailPoints int
}

func DefaultRules() Rules {
	return Rules{
		YoungAge:              25,
		MiddleAge:             40,
		YoungPoints:           20,
		MiddlePoints:          10,
		SeniorPoints:          5,
		TrustedPhonePrefix:    "07",
		UntrustedPhonePoints:  15,
		SuspiciousEmailSuffix: "@example.com",
		SuspiciousEmailPoints: 25,
	}
}

type Scorer struct {
	rules  Rules
	now    func() time.Time
	logger logger.Logger
}

func NewScorer(rules Rules, log logger.Logger) *Scorer {
	return &Scorer{
		rules:  rules,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "heuristic-scorer"}),
	}
}

// WithClock returns a copy of the scorer that reads the current time from now.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	c := *s
	c.now = now
	return &c
}

// Score sums the independent age, phone and email rules. The result is not
// clamped.
func (s *Scorer) Score(app *models.CustomerApplication) int {
	return s.agePoints(app) + s.phonePoints(app) + s.emailPoints(app)
}

func (s *Scorer) agePoints(app *models.CustomerApplication) int {
	if !app.HasDateOfBirth() {
		return 0
	}

	dob, err := validation.ParseDate(*app.DateOfBirth)
	if err != nil {
		s.logger.Warn("unparseable date of birth, age rule skipped", map[string]interface{}{
			"error": err,
		})
		return 0
	}

	age := ApproximateAge(dob, s.now())
	switch {
	case age < s.rules.YoungAge:
		return s.rules.YoungPoints
	case age < s.rules.MiddleAge:
		return s.rules.MiddlePoints
	default:
		return s.rules.SeniorPoints
	}
}

func (s *Scorer) phonePoints(app *models.CustomerApplication) int {
	if !app.HasPhone() || strings.HasPrefix(*app.Phone, s.rules.TrustedPhonePrefix) {
		return 0
	}
	return s.rules.UntrustedPhonePoints
}

func (s *Scorer) emailPoints(app *models.CustomerApplication) int {
	if app.Email != "" && strings.HasSuffix(app.Email, s.rules.SuspiciousEmailSuffix) {
		return s.rules.SuspiciousEmailPoints
	}
	return 0
}

// ApproximateAge is whole days since birth divided by 365. It drifts from the
// calendar age by one around birthdays once enough leap days accumulate.
func ApproximateAge(dob, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	born := time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(born).Hours() / 24)
	return days / 365
}
