// internal/workers/customer/onboard-customer/models.go
package onboardcustomer

import "customer-onboarding/internal/models"

type Input struct {
	Application models.CustomerApplication `json:"application"`
}

type Output struct {
	CustomerID int64   `json:"customerId"`
	RiskScore  int     `json:"riskScore"`
	Status     string  `json:"onboardingStatus"`
	AddressIDs []int64 `json:"addressIds"`
}
