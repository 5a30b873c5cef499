// internal/models/customer.go
package models

import "strings"

// CustomerApplication is the candidate data submitted for onboarding. Optional
// fields are pointers so that an absent value is never confused with "".
type CustomerApplication struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	NationalID  *string   `json:"national_id,omitempty"`
	Addresses   []Address `json:"addresses,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// Flatten joins the address parts as "street, city, state, zip, country".
func (a Address) Flatten() string {
	return strings.Join([]string{a.Street, a.City, a.State, a.ZipCode, a.Country}, ", ")
}

type Customer struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       *string           `json:"phone"`
	DateOfBirth *string           `json:"date_of_birth"`
	NationalID  *string           `json:"national_id"`
	RiskScore   int               `json:"risk_score"`
	Addresses   []CustomerAddress `json:"addresses"`
}

type CustomerAddress struct {
	ID int64 `json:"id"`
	Address
}

// HasPhone reports whether a non-empty phone was supplied.
func (a *CustomerApplication) HasPhone() bool {
	return a.Phone != nil && *a.Phone != ""
}

func (a *CustomerApplication) HasDateOfBirth() bool {
	return a.DateOfBirth != nil && *a.DateOfBirth != ""
}
