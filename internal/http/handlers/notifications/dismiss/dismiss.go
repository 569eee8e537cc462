// Package dismiss убирает уведомление из ленты до истечения срока.
package dismiss

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
)

// Handler обрабатывает DELETE /api/v1/notifications/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление уведомления.
type Service interface {
	DismissNotification(id string) error
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Скрыть уведомление
// @Tags Notifications
// @Produce  json
// @Param id path string true "Идентификатор уведомления"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Router /api/v1/notifications/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.dismiss"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("id", id),
	)

	if err := h.service.DismissNotification(id); err != nil {
		log.Info("notification not dismissed", sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Debug("notification dismissed")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"dismissed": id,
	}))
}
