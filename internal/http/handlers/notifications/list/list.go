// Package list отдаёт живые уведомления сессии.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает GET /api/v1/notifications.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение ленты уведомлений.
type Service interface {
	Notifications() []models.Notification
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Уведомления
// @Description Уведомления живут 5 секунд, старые первыми.
// @Tags Notifications
// @Produce  json
// @Success 200 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notifications.list"

	items := h.service.Notifications()
	h.log.Debug("list notifications",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("count", len(items)),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"notifications": items,
	}))
}
