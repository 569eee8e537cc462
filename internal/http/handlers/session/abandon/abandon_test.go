package abandon

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-plans/internal/lib/fsm"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
	"github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

// MockService реализует интерфейс abandon.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) AbandonCheckout() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockService) Snapshot() models.SessionSnapshot {
	args := m.Called()
	return args.Get(0).(models.SessionSnapshot)
}

func TestAbandonHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "оформление закрыто",
			setupMock: func(m *MockService) {
				m.On("AbandonCheckout").Return(nil).Once()
				m.On("Snapshot").Return(models.SessionSnapshot{
					SessionState: models.SessionState{Stage: models.StageBrowsing},
				}).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"stage":"browsing"`,
		},
		{
			name: "идёт оплата",
			setupMock: func(m *MockService) {
				m.On("AbandonCheckout").Return(
					fmt.Errorf("op: %w: %w", fsm.ErrRejected, session.ErrPaymentInProgress)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"payment already in progress"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/session/checkout/abandon", nil)
			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
