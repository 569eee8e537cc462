// Package send реализует HTTP-обработчик отправки счёта на email подписчика.
//
// Без учётных данных SMTP релея отправка имитируется сервисом доставки,
// обработчик при этом отвечает так же, как при реальной отправке. Поля с
// неподходящими типами в этом режиме не мешают ответу.
package send

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
	"github.com/magabrotheeeer/subscription-plans/internal/services/invoice"
)

// Handler обрабатывает POST /send-invoice.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает доставку счёта.
type Service interface {
	Deliver(ctx context.Context, data models.InvoiceData) models.DeliveryResult
	Simulated() bool
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отправить счёт
// @Description Отправляет HTML-счёт на email подписчика. Без SMTP_USER/SMTP_PASS отправка имитируется.
// @Tags Invoice
// @Accept  json
// @Produce  json
// @Param request body models.InvoiceData true "Данные счёта"
// @Success 200 {object} response.InvoiceResponse "Счёт отправлен или отправка имитирована"
// @Failure 429 {string} string "Слишком много запросов"
// @Failure 500 {object} response.InvoiceResponse "Ошибка релея или обработки"
// @Router /send-invoice [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.invoice.send"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		h.processingFailure(w, r)
		return
	}

	req, err := invoiceData(raw)
	if err != nil {
		if !h.service.Simulated() {
			log.Error("invalid invoice fields", sl.Err(err))
			h.processingFailure(w, r)
			return
		}
		log.Warn("invalid invoice fields, sending is simulated", sl.Err(err))
	}
	log.Debug("request body decoded", slog.Any("request", req))

	res := h.service.Deliver(r.Context(), req)
	if !res.Delivered() {
		log.Error("invoice was not delivered",
			slog.String("failure", string(res.Failure)),
			slog.String("message", res.Message),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.InvoiceResponse{
			Success: false,
			Message: res.Message,
		})
		return
	}

	log.Info("invoice delivered", slog.Bool("simulated", res.Simulated), slog.String("email_id", res.EmailID))
	render.JSON(w, r, response.InvoiceResponse{
		Success: true,
		Message: res.Message,
		EmailID: res.EmailID,
	})
}

func (h *Handler) processingFailure(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.InvoiceResponse{
		Success: false,
		Message: invoice.MessageProcessing,
	})
}
