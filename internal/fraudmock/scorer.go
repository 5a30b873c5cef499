// internal/fraudmock/scorer.go
package fraudmock

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"customer-onboarding/internal/common/config"
	"customer-onboarding/internal/common/validation"
	"customer-onboarding/internal/risk/fraudapi"
)

const (
	namePoints    = 40
	countryPoints = 30
	agePoints     = 15
	domainPoints  = 30

	highFloor   = 71
	mediumFloor = 31
)

var trailingWord = regexp.MustCompile(`(\b[A-Z][a-zA-Z]+)$`)

type Result struct {
	Score    int               `json:"score"`
	Category string            `json:"category"`
	Reason   map[string]string `json:"reason"`
}

// Scorer is a stand-in for the external fraud service. Its rule sets are
// copied at construction and never modified.
type Scorer struct {
	names     []string
	countries map[string]struct{}
	domains   map[string]struct{}
	minAge    int
	maxAge    int
	now       func() time.Time
}

func NewScorer(rules config.MockRulesConfig) *Scorer {
	s := &Scorer{
		names:     make([]string, 0, len(rules.HighRiskNames)),
		countries: make(map[string]struct{}, len(rules.HighRiskCountries)),
		domains:   make(map[string]struct{}, len(rules.SuspiciousDomains)),
		minAge:    rules.MinAge,
		maxAge:    rules.MaxAge,
		now:       time.Now,
	}
	for _, n := range rules.HighRiskNames {
		s.names = append(s.names, strings.ToLower(n))
	}
	for _, c := range rules.HighRiskCountries {
		s.countries[c] = struct{}{}
	}
	for _, d := range rules.SuspiciousDomains {
		s.domains[strings.ToLower(d)] = struct{}{}
	}
	return s
}

func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	c := *s
	c.now = now
	return &c
}

// Score applies the name, country, age and e-mail domain rules. The age rule
// is skipped when no date of birth is given. An unparseable date is an error.
func (s *Scorer) Score(req fraudapi.Request) (Result, error) {
	reasons := make(map[string]string)
	score := 0

	lowered := strings.ToLower(req.Name)
	for _, bad := range s.names {
		if strings.Contains(lowered, bad) {
			score += namePoints
			reasons["name"] = "suspicious pattern or word in name"
			break
		}
	}

	if m := trailingWord.FindStringSubmatch(req.Address); m != nil {
		if _, ok := s.countries[m[1]]; ok {
			score += countryPoints
			reasons["address"] = fmt.Sprintf("high-risk country detected: %s", m[1])
		}
	}

	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := validation.ParseDate(*req.DateOfBirth)
		if err != nil {
			return Result{}, fmt.Errorf("date_of_birth: %w", err)
		}
		age := validation.CalendarAge(dob, s.now())
		if age < s.minAge || age > s.maxAge {
			score += agePoints
			reasons["age"] = fmt.Sprintf("age=%d is outside typical range (%d-%d)", age, s.minAge, s.maxAge)
		}
	}

	domain := strings.ToLower(req.Email[strings.LastIndex(req.Email, "@")+1:])
	if _, ok := s.domains[domain]; ok {
		score += domainPoints
		reasons["email"] = fmt.Sprintf("suspicious email domain: %s", domain)
	}

	if score > 100 {
		score = 100
	}
	return Result{Score: score, Category: category(score), Reason: reasons}, nil
}

func category(score int) string {
	switch {
	case score >= highFloor:
		return fraudapi.CategoryHigh
	case score >= mediumFloor:
		return fraudapi.CategoryMedium
	default:
		return fraudapi.CategoryLow
	}
}
