// internal/customer/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"customer-onboarding/internal/common/logger"
	"customer-onboarding/internal/models"
)

const EventCustomerOnboarded = "customer.onboarded"

const welcomeSubject = "Welcome aboard"

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload interface{}) (string, error)
}

type OnboardedEvent struct {
	EventType  string    `json:"eventType"`
	CustomerID int64     `json:"customerId"`
	Email      string    `json:"email"`
	RiskScore  int       `json:"riskScore"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier sends the welcome e-mail and the onboarded event. Either channel
// may be nil to disable it.
type Notifier struct {
	email   EmailSender
	events  EventPublisher
	timeout time.Duration
	logger  logger.Logger
}

func NewNotifier(email EmailSender, events EventPublisher, log logger.Logger) *Notifier {
	return &Notifier{
		email:   email,
		events:  events,
		timeout: 10 * time.Second,
		logger:  log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// CustomerOnboarded attempts every enabled channel and joins their errors.
func (n *Notifier) CustomerOnboarded(ctx context.Context, c *models.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	var errs []error

	if n.email != nil {
		messageID, err := n.email.SendEmail(ctx, c.Email, welcomeSubject, welcomeBody(c))
		if err != nil {
			errs = append(errs, fmt.Errorf("welcome email: %w", err))
		} else {
			n.logger.Info("welcome email sent", map[string]interface{}{
				"customerId": c.ID,
				"messageId":  messageID,
			})
		}
	}

	if n.events != nil {
		event := OnboardedEvent{
			EventType:  EventCustomerOnboarded,
			CustomerID: c.ID,
			Email:      c.Email,
			RiskScore:  c.RiskScore,
			OccurredAt: time.Now().UTC(),
		}
		messageID, err := n.events.PublishEvent(ctx, EventCustomerOnboarded, event)
		if err != nil {
			errs = append(errs, fmt.Errorf("onboarded event: %w", err))
		} else {
			n.logger.Info("onboarded event published", map[string]interface{}{
				"customerId": c.ID,
				"messageId":  messageID,
			})
		}
	}

	return errors.Join(errs...)
}

func welcomeBody(c *models.Customer) string {
	return fmt.Sprintf("Hello %s,\n\nYour account has been created. Your customer number is %d.\n", c.Name, c.ID)
}
