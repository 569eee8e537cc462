// Package payment реализует HTTP-обработчик подтверждения оплаты.
//
// Счёт выписывается сразу и возвращается с кодом 202, план применяется
// контроллером сессии после короткой задержки.
package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает POST /api/v1/session/payment.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает подтверждение оплаты.
type Service interface {
	ConfirmPayment(ctx context.Context) (models.Invoice, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты
// @Description Выписывает счёт и запускает смену плана. Письмо со счётом отправляется после применения плана.
// @Tags Session
// @Produce  json
// @Success 202 {object} response.Response "Счёт выписан, план будет применён"
// @Failure 409 {object} response.ErrorResponse "Неверный этап или оплата уже идёт"
// @Failure 500 {object} response.ErrorResponse "Не удалось выписать счёт"
// @Router /api/v1/session/payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.payment"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	invoice, err := h.service.ConfirmPayment(r.Context())
	if err != nil {
		log.Error("payment not accepted", sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("payment accepted", slog.String("invoice_number", invoice.Number), slog.String("plan", invoice.PlanID))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"invoice": invoice,
	}))
}
