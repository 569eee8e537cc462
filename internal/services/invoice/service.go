// Package invoice рендерит квитанции, выдаёт номера счетов и отправляет
// счета подписчикам через SMTP релей.
package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-plans/internal/config"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/validation"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

const (
	MessageSimulated  = "Invoice email simulated successfully (SMTP not configured)"
	MessageSent       = "Invoice email sent successfully"
	MessageProcessing = "Failed to process invoice email"
	relayErrorPrefix  = "Email service error: "
)

// Metrics учитывает результаты отправки.
type Metrics interface {
	ObserveDelivery(res models.DeliveryResult)
}

// Service отправляет счета. Без учётных данных релея отправка имитируется.
type Service struct {
	transport     smtp.TransportInterface
	fromName      string
	log           *slog.Logger
	validate      *validator.Validate
	metrics       Metrics
	simulateDelay time.Duration
	now           func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics подключает учёт результатов отправки.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSimulateDelay меняет задержку имитации отправки.
func WithSimulateDelay(d time.Duration) Option {
	return func(s *Service) { s.simulateDelay = d }
}

// NewService создает сервис доставки. Транспорт используется только если
// в cfg заданы пользователь и пароль релея.
func NewService(cfg config.SMTP, log *slog.Logger, transport smtp.TransportInterface, opts ...Option) *Service {
	s := &Service{
		fromName:      cfg.SMTPFromName,
		log:           log,
		validate:      validation.New(),
		simulateDelay: time.Second,
		now:           time.Now,
	}
	if cfg.Configured() {
		s.transport = transport
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulated сообщает, что релей не настроен и отправка имитируется.
func (s *Service) Simulated() bool {
	return s.transport == nil
}

// Deliver пытается отправить счёт и всегда возвращает результат, не ошибку.
func (s *Service) Deliver(ctx context.Context, data models.InvoiceData) (res models.DeliveryResult) {
	const op = "services.invoice.Deliver"
	log := s.log.With(
		slog.String("op", op),
		slog.String("invoice_number", data.InvoiceNumber),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("invoice delivery panicked", slog.Any("panic", r))
			res = processingFailure()
		}
		if s.metrics != nil {
			s.metrics.ObserveDelivery(res)
		}
	}()

	if s.Simulated() {
		return s.simulate(ctx, log, data)
	}

	if err := s.validate.Struct(data); err != nil {
		log.Error("invalid invoice data", sl.Err(err))
		return processingFailure()
	}

	body, err := RenderReceipt(data)
	if err != nil {
		log.Error("failed to render receipt", sl.Err(err))
		return processingFailure()
	}

	emailID, err := s.sendEmail(ctx, data, body)
	if err != nil {
		log.Error("email sending error", slog.String("to", data.SubscriberEmail), sl.Err(err))
		return models.DeliveryResult{
			Status:  models.DeliveryFailed,
			Message: relayErrorPrefix + err.Error(),
			Failure: models.FailureRelay,
		}
	}

	log.Info("invoice email sent", slog.String("to", data.SubscriberEmail), slog.String("email_id", emailID))
	return models.DeliveryResult{
		Status:  models.DeliveryDelivered,
		Message: MessageSent,
		EmailID: emailID,
	}
}

func (s *Service) simulate(ctx context.Context, log *slog.Logger, data models.InvoiceData) models.DeliveryResult {
	log.Info("smtp is not configured, simulating invoice email",
		slog.String("to", data.SubscriberEmail),
		slog.Any("invoice", data),
	)

	timer := time.NewTimer(s.simulateDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		log.Warn("simulated send interrupted", sl.Err(ctx.Err()))
		return models.DeliveryResult{
			Status:  models.DeliveryFailed,
			Message: relayErrorPrefix + ctx.Err().Error(),
			Failure: models.FailureRelay,
		}
	}

	return models.DeliveryResult{
		Status:    models.DeliveryDelivered,
		Message:   MessageSimulated,
		Simulated: true,
	}
}

func (s *Service) sendEmail(ctx context.Context, data models.InvoiceData, body string) (string, error) {
	from := s.transport.GetSMTPUser()
	to := strings.TrimSpace(data.SubscriberEmail)
	emailID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.transport.Host())

	msg := strings.Join([]string{
		"From: " + (&mail.Address{Name: s.fromName, Address: from}).String(),
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", Subject(data)),
		"Date: " + s.now().Format(time.RFC1123Z),
		"Message-ID: " + emailID,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"Content-Transfer-Encoding: 8bit",
		"",
		body,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", from, sl.Err(err))
		return "", err
	}

	if err := client.Rcpt(to); err != nil {
		s.log.Error("Failed to set RCPT TO", "recipient", to, sl.Err(err))
		return "", err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return "", err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", sl.Err(err))
		return "", err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return "", err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", sl.Err(err))
		return "", err
	}

	return emailID, nil
}

func processingFailure() models.DeliveryResult {
	return models.DeliveryResult{
		Status:  models.DeliveryFailed,
		Message: MessageProcessing,
		Failure: models.FailureProcessing,
	}
}
