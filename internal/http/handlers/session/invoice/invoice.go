// Package invoice отдаёт последний выписанный счёт в JSON или как HTML-квитанцию.
package invoice

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
	invoicesvc "github.com/magabrotheeeer/subscription-plans/internal/services/invoice"
)

// Handler обрабатывает GET /api/v1/session/invoice.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение последнего счёта.
type Service interface {
	Invoice() (models.Invoice, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Последний счёт
// @Tags Session
// @Produce  json
// @Produce  html
// @Param format query string false "html для квитанции"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Счёт ещё не выписан"
// @Router /api/v1/session/invoice [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.invoice"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	inv, err := h.service.Invoice()
	if err != nil {
		log.Info("no invoice to show", sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		html, err := invoicesvc.RenderReceipt(inv.Data())
		if err != nil {
			log.Error("failed to render receipt", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not render invoice"))
			return
		}
		render.HTML(w, r, html)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"invoice": inv,
		"amount":  invoicesvc.FormatAmount(inv.PlanPrice),
	}))
}
