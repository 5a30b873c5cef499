// internal/models/blacklist.go
package models

import "time"

// BlacklistRecord is a previously flagged identity. Only the name is required.
type BlacklistRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	DateOfBirth *string   `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}
