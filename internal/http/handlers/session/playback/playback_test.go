package playback

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// MockService реализует интерфейс playback.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Play()  { m.Called() }
func (m *MockService) Pause() { m.Called() }
func (m *MockService) Ended() { m.Called() }

func (m *MockService) Snapshot() models.SessionSnapshot {
	args := m.Called()
	return args.Get(0).(models.SessionSnapshot)
}

func TestPlaybackHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		action         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "play",
			action: "play",
			setupMock: func(m *MockService) {
				m.On("Play").Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{Playback: models.PlaybackPlaying},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"playback":"playing"`,
		},
		{
			name:   "play при исчерпанном лимите",
			action: "play",
			setupMock: func(m *MockService) {
				m.On("Play").Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{
						Playback:    models.PlaybackPaused,
						LimitNotice: "You've reached your Free plan's viewing limit. Please upgrade for more.",
					},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"limit_notice":"You've reached your Free plan's viewing limit. Please upgrade for more."`,
		},
		{
			name:   "pause",
			action: "pause",
			setupMock: func(m *MockService) {
				m.On("Pause").Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{Playback: models.PlaybackPaused},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"playback":"paused"`,
		},
		{
			name:   "ended",
			action: "ended",
			setupMock: func(m *MockService) {
				m.On("Ended").Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{Playback: models.PlaybackEnded},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"playback":"ended"`,
		},
		{
			name:           "неизвестное действие",
			action:         "rewind",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"unknown playback action"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/session/playback/"+tt.action, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("action", tt.action)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
