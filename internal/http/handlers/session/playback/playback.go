// Package playback реализует HTTP-обработчик событий видеоплеера:
// play, pause и ended. Учёт просмотренного времени ведёт контроллер сессии.
package playback

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-plans/internal/http/response"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Handler обрабатывает POST /api/v1/session/playback/{action}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает управление воспроизведением.
type Service interface {
	Play()
	Pause()
	Ended()
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
// @Summary Событие плеера
// @Description play запускает учёт просмотра (или сразу ставит паузу, если лимит исчерпан), pause и ended его останавливают.
// @Tags Session
// @Produce  json
// @Param action path string true "play, pause или ended"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестное действие"
// @Router /api/v1/session/playback/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.playback"
	action := chi.URLParam(r, "action")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("action", action),
	)

	switch action {
	case "play":
		h.service.Play()
	case "pause":
		h.service.Pause()
	case "ended":
		h.service.Ended()
	default:
		log.Error("unknown playback action")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown playback action"))
		return
	}

	snap := h.service.Snapshot()
	log.Debug("playback updated", slog.String("playback", string(snap.Playback)), slog.Int("watched_seconds", snap.WatchedSeconds))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"session": snap,
	}))
}
