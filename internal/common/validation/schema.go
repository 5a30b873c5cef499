package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const DateLayout = "2006-01-02"

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line for logs and error details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

func (r *ValidationResult) add(field, message, code string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Code: code})
}

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	schema *gojsonschema.Schema
}

func NewSchema(definition string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

func MustSchema(definition string) *Schema {
	s, err := NewSchema(definition)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes validates a raw JSON document.
func (s *Schema) ValidateBytes(document []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(document))
}

// ValidateGo validates an already decoded value such as map[string]interface{}.
func (s *Schema) ValidateGo(document interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(document))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) *ValidationResult {
	out := &ValidationResult{Valid: true}

	result, err := s.schema.Validate(loader)
	if err != nil {
		out.add("(root)", fmt.Sprintf("malformed document: %v", err), "MALFORMED_DOCUMENT")
		return out
	}

	for _, re := range result.Errors() {
		out.add(re.Field(), re.Description(), strings.ToUpper(re.Type()))
	}
	return out
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// CalendarAge returns completed years between dob and now.
func CalendarAge(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ValidateMinimumAge checks an optional date of birth. A nil dob is valid.
func ValidateMinimumAge(result *ValidationResult, field string, dob *string, minAge int, now time.Time) {
	if dob == nil {
		return
	}
	born, err := ParseDate(*dob)
	if err != nil {
		result.add(field, "must be a valid calendar date in YYYY-MM-DD format", "INVALID_DATE")
		return
	}
	if CalendarAge(born, now) < minAge {
		result.add(field, fmt.Sprintf("customer must be at least %d years old", minAge), "UNDERAGE")
	}
}
