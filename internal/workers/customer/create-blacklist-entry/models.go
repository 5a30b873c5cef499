// internal/workers/customer/create-blacklist-entry/models.go
package createblacklistentry

type Input struct {
	Name        string  `json:"name"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

type Output struct {
	BlacklistID int64  `json:"blacklistId"`
	CreatedAt   string `json:"createdAt"` // ISO 8601
}
