// Package abandon реализует HTTP-обработчик отказа от оформления плана.
package abandon

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает POST /api/v1/session/checkout/abandon.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает отказ от оформления.
type Service interface {
	AbandonCheckout() error
	Snapshot() models.SessionSnapshot
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отказ от оформления
// @Tags Session
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Нет оформления или идёт оплата"
// @Router /api/v1/session/checkout/abandon [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.abandon"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.AbandonCheckout(); err != nil {
		log.Info("abandon rejected", sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("checkout abandoned")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": h.service.Snapshot(),
	}))
}
