// Package subscriber реализует HTTP-обработчик ввода данных плательщика.
package subscriber

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Request имя и email, на который придёт счёт.
type Request struct {
	Name  string `json:"name" example:"A. Subscriber"`
	Email string `json:"email" example:"a@b.com"`
}

// Handler обрабатывает POST /api/v1/session/subscriber.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает сохранение данных плательщика.
type Service interface {
	SubmitSubscriber(name, email string) error
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
// @Summary Данные плательщика
// @Tags Session
// @Accept  json
// @Produce  json
// @Param request body Request true "Имя и email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Неверный этап"
// @Failure 422 {object} response.ErrorResponse "Пустое имя или некорректный email"
// @Router /api/v1/session/subscriber [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.subscriber"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.SubmitSubscriber(req.Name, req.Email); err != nil {
		log.Info("subscriber info rejected", sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscriber info accepted")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": h.service.Snapshot(),
	}))
}
