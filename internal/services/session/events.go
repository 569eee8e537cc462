package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
)

// Ключи маршрутизации доменных событий.
const (
	EventPlanActivated    = "plan.activated"
	EventPlanCanceled     = "plan.canceled"
	EventInvoiceDelivered = "invoice.delivered"
	EventInvoiceFailed    = "invoice.failed"
)

const publishTimeout = 5 * time.Second

// Publisher публикует событие с ключом маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Event тело доменного события.
type Event struct {
	Type            string    `json:"type"`
	PlanID          string    `json:"plan_id"`
	SubscriberEmail string    `json:"subscriber_email,omitempty"`
	InvoiceNumber   string    `json:"invoice_number,omitempty"`
	Message         string    `json:"message,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// publishLocked отправляет событие в фоне. Ошибка публикации только логируется.
func (c *Controller) publishLocked(routingKey string, ev Event) {
	if c.publisher == nil || c.closed {
		return
	}
	ev.Type = routingKey
	ev.OccurredAt = c.now()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(c.ctx, publishTimeout)
		defer cancel()

		if err := c.publisher.Publish(ctx, routingKey, ev); err != nil {
			c.log.Error("failed to publish event",
				slog.String("op", "services.session.publish"),
				slog.String("routing_key", routingKey),
				sl.Err(err),
			)
		}
	}()
}
