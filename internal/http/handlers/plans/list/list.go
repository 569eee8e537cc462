// Package list отдаёт каталог тарифных планов.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/plans"
)

// Handler обрабатывает GET /api/v1/plans.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Каталог планов
// @Tags Plans
// @Produce  json
// @Success 200 {object} response.Response "Список планов"
// @Router /api/v1/plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.list"
	h.log.Debug("list plans",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	render.JSON(w, r, response.OKWithData(map[string]any{
		"plans": plans.All(),
	}))
}
