// Package cancel реализует HTTP-обработчик отмены платной подписки.
package cancel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает POST /api/v1/session/cancel.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает отмену подписки.
type Service interface {
	Cancel() error
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
// @Summary Отмена подписки
// @Description Возвращает сессию на бесплатный план и обнуляет просмотренное время.
// @Tags Session
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Нет платного плана"
// @Router /api/v1/session/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.Cancel(); err != nil {
		log.Info("cancel rejected", sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscription canceled")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": h.service.Snapshot(),
	}))
}
