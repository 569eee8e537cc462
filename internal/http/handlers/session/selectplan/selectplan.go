// Package selectplan реализует HTTP-обработчик выбора тарифного плана.
//
// Понижение платного плана отклоняется контроллером сессии, обработчик
// отвечает 409 и в ленте появляется уведомление с причиной.
package selectplan

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Request тело запроса выбора плана.
type Request struct {
	PlanID string `json:"plan_id" validate:"required" example:"silver"`
}

// Handler обрабатывает POST /api/v1/session/plan.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает выбор плана.
type Service interface {
	SelectPlan(planID string) error
	Snapshot() models.SessionSnapshot
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выбор плана
// @Description Начинает оформление выбранного плана. Понижение платного плана запрещено.
// @Tags Session
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор плана"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Неизвестный план"
// @Failure 409 {object} response.ErrorResponse "Понижение плана или неверный этап"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /api/v1/session/plan [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.selectplan"
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

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.SelectPlan(req.PlanID); err != nil {
		log.Info("plan selection rejected", slog.String("plan", req.PlanID), sl.Err(err))
		status, resp := response.SessionError(err)
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("plan selected", slog.String("plan", req.PlanID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": h.service.Snapshot(),
	}))
}
