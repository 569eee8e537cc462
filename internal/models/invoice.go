package models

import "time"

// Invoice счёт, выставляемый при подтверждении оплаты. Не сохраняется.
type Invoice struct {
	Number          string    `json:"invoice_number"`
	IssuedAt        time.Time `json:"issued_at"`
	Date            string    `json:"invoice_date"`
	SubscriberName  string    `json:"subscriber_name"`
	SubscriberEmail string    `json:"subscriber_email"`
	PlanID          string    `json:"plan_id"`
	PlanName        string    `json:"plan_name"`
	PlanPrice       float64   `json:"plan_price"`
}

// Data возвращает полезную нагрузку для отправки счёта по почте.
func (i Invoice) Data() InvoiceData {
	return InvoiceData{
		SubscriberName:  i.SubscriberName,
		SubscriberEmail: i.SubscriberEmail,
		PlanName:        i.PlanName,
		PlanPrice:       i.PlanPrice,
		InvoiceNumber:   i.Number,
		InvoiceDate:     i.Date,
	}
}

// InvoiceData тело запроса POST /send-invoice.
type InvoiceData struct {
	SubscriberName  string  `json:"subscriberName" validate:"required"`
	SubscriberEmail string  `json:"subscriberEmail" validate:"required,subscriber_email"`
	PlanName        string  `json:"planName" validate:"required"`
	PlanPrice       float64 `json:"planPrice" validate:"gte=0"`
	InvoiceNumber   string  `json:"invoiceNumber" validate:"required,numeric"`
	InvoiceDate     string  `json:"invoiceDate" validate:"required"`
}

// DeliveryStatus итог попытки отправки счёта.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// FailureKind отличает ошибку релея от ошибки обработки входных данных.
type FailureKind string

const (
	FailureRelay      FailureKind = "relay"
	FailureProcessing FailureKind = "processing"
)

// DeliveryResult результат отправки счёта. Ошибки не выходят за границу
// сервиса доставки, а превращаются в результат со статусом failed.
type DeliveryResult struct {
	Status    DeliveryStatus `json:"status"`
	Message   string         `json:"message"`
	EmailID   string         `json:"email_id,omitempty"`
	Simulated bool           `json:"simulated"`
	Failure   FailureKind    `json:"failure,omitempty"`
}

// Delivered сообщает об успешной (или имитированной) отправке.
func (r DeliveryResult) Delivered() bool {
	return r.Status == DeliveryDelivered
}
