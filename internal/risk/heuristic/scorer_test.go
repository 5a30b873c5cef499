package heuristic

import (
	"testing"
	"time"

	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestScorer(t *testing.T) *Scorer {
	return NewScorer(DefaultRules(), logger.NewTestLogger(t)).WithClock(func() time.Time { return fixedNow })
}

func TestScorer_Score(t *testing.T) {
	scorer := newTestScorer(t)

	tests := []struct {
		name string
		app  models.CustomerApplication
		want int
	}{
		{
			name: "thirties with trusted phone and ordinary email",
			app:  models.CustomerApplication{Name: "Alice", Email: "alice@x.com", Phone: strPtr("07123456789"), DateOfBirth: strPtr("1990-01-01")},
			want: 10,
		},
		{
			name: "young with foreign phone and example email",
			app:  models.CustomerApplication{Name: "Bob", Email: "bob@example.com", Phone: strPtr("+1234567890"), DateOfBirth: strPtr("2004-01-01")},
			want: 60,
		},
		{
			name: "senior",
			app:  models.CustomerApplication{Name: "Carol", Email: "carol@x.com", DateOfBirth: strPtr("1950-03-03")},
			want: 5,
		},
		{
			name: "nothing optional supplied",
			app:  models.CustomerApplication{Name: "Dan", Email: "dan@x.com"},
			want: 0,
		},
		{
			name: "empty phone counts as absent",
			app:  models.CustomerApplication{Name: "Eve", Email: "eve@x.com", Phone: strPtr("")},
			want: 0,
		},
		{
			name: "example domain must be the suffix",
			app:  models.CustomerApplication{Name: "Fay", Email: "fay@example.com.au"},
			want: 0,
		},
		{
			name: "unparseable dob scores nothing",
			app:  models.CustomerApplication{Name: "Gus", Email: "gus@x.com", DateOfBirth: strPtr("not-a-date")},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Score(&tt.app))
		})
	}
}

func TestScorer_AgeBrackets(t *testing.T) {
	scorer := newTestScorer(t)

	tests := []struct {
		dob  string
		want int
	}{
		{"2000-06-01", 20}, // 24
		{"1999-05-01", 10}, // 25
		{"1984-07-01", 10}, // 39
		{"1984-05-01", 5},  // 40
	}

	for _, tt := range tests {
		app := models.CustomerApplication{Name: "n", Email: "n@x.com", DateOfBirth: strPtr(tt.dob)}
		assert.Equal(t, tt.want, scorer.Score(&app), tt.dob)
	}
}

func TestApproximateAge(t *testing.T) {
	// 25 calendar years up to June 2024 hold 7 leap days, so the day count
	// passes 25*365 a week before the 25th birthday.
	dob := time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, ApproximateAge(dob, fixedNow))

	dob = time.Date(1999, 6, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, ApproximateAge(dob, fixedNow))

	dob = time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24, ApproximateAge(dob, fixedNow))
}

func TestScorer_CustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.TrustedPhonePrefix = "+44"
	rules.SuspiciousEmailSuffix = "@temp.io"
	scorer := NewScorer(rules, logger.NewNoOpLogger())

	app := models.CustomerApplication{Name: "n", Email: "n@temp.io", Phone: strPtr("07123456789")}
	assert.Equal(t, 40, scorer.Score(&app))
}
