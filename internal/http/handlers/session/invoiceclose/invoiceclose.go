// Package invoiceclose закрывает окно счёта.
package invoiceclose

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает DELETE /api/v1/session/invoice.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает закрытие окна счёта.
type Service interface {
	CloseInvoice()
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
// @Summary Закрыть окно счёта
// @Tags Session
// @Produce  json
// @Success 200 {object} response.Response
// @Router /api/v1/session/invoice [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.invoiceclose"
	h.service.CloseInvoice()
	h.log.Debug("invoice view closed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": h.service.Snapshot(),
	}))
}
