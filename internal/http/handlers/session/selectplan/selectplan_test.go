package selectplan

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-plans/internal/lib/fsm"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
	"github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

// MockService реализует интерфейс selectplan.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) SelectPlan(planID string) error {
	args := m.Called(planID)
	return args.Error(0)
}

func (m *MockService) Snapshot() models.SessionSnapshot {
	args := m.Called()
	return args.Get(0).(models.SessionSnapshot)
}

func TestSelectPlanHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "план выбран",
			body: `{"plan_id":"silver"}`,
			setupMock: func(m *MockService) {
				m.On("SelectPlan", "silver").Return(nil).Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{Stage: models.StageCollectingInfo, SelectedPlanID: "silver"},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"selected_plan_id":"silver"`,
		},
		{
			name: "понижение плана",
			body: `{"plan_id":"bronze"}`,
			setupMock: func(m *MockService) {
				m.On("SelectPlan", "bronze").Return(
					fmt.Errorf("op: %w: %w", fsm.ErrRejected, session.ErrDowngradeNotAllowed)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"downgrade not allowed"}`,
		},
		{
			name: "неизвестный план",
			body: `{"plan_id":"platinum"}`,
			setupMock: func(m *MockService) {
				m.On("SelectPlan", "platinum").Return(fmt.Errorf("op: %w", session.ErrUnknownPlan)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"unknown plan"}`,
		},
		{
			name:           "пустой plan_id",
			body:           `{}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field PlanID is a required field`,
		},
		{
			name:           "некорректный JSON",
			body:           `plan`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/session/plan", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
