// Package read отдаёт снимок состояния сессии просмотра.
package read

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает GET /api/v1/session.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение состояния сессии.
type Service interface {
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
// @Summary Состояние сессии
// @Description Текущий план, этап оформления, просмотренное время и таблица тарифов.
// @Tags Session
// @Produce  json
// @Success 200 {object} response.Response
// @Router /api/v1/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	snap := h.service.Snapshot()
	log.Debug("session snapshot", slog.String("stage", string(snap.Stage)), slog.String("plan", snap.CurrentPlanID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": snap,
	}))
}
