package register

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

	"github.com/magabrotheeeer/subscription-plans/internal/models"
	"github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

// MockService реализует интерфейс register.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(email string) error {
	args := m.Called(email)
	return args.Error(0)
}

func (m *MockService) Snapshot() models.SessionSnapshot {
	args := m.Called()
	return args.Get(0).(models.SessionSnapshot)
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"email":"a@b.com"}`,
			setupMock: func(m *MockService) {
				m.On("Register", "a@b.com").Return(nil).Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{Stage: models.StageBrowsing, SubscriberEmail: "a@b.com"},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"stage":"browsing"`,
		},
		{
			name: "некорректный email",
			body: `{"email":"nope"}`,
			setupMock: func(m *MockService) {
				m.On("Register", "nope").Return(fmt.Errorf("op: %w", session.ErrInvalidEmail)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"invalid email"}`,
		},
		{
			name: "повторная регистрация",
			body: `{"email":"a@b.com"}`,
			setupMock: func(m *MockService) {
				m.On("Register", "a@b.com").Return(fmt.Errorf("op: %w", session.ErrWrongStage)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"email":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/session/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
