package subscriptionplans

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-plans/internal/config"
	"github.com/magabrotheeeer/subscription-plans/internal/metrics"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
	invoiceservice "github.com/magabrotheeeer/subscription-plans/internal/services/invoice"
	sessionservice "github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

type snapshotEnvelope struct {
	Status string                 `json:"status"`
	Error  string                 `json:"error"`
	Data   models.SessionSnapshot `json:"data"`
}

func newTestServer(t *testing.T, limiter *rate.Limiter) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	invoiceService := invoiceservice.NewService(config.SMTP{}, log, nil,
		invoiceservice.WithMetrics(m),
		invoiceservice.WithSimulateDelay(0),
	)
	controller := sessionservice.New(log, invoiceService,
		invoiceservice.NewNumberGenerator(invoiceservice.NewMemoryRegistry()),
		sessionservice.WithDelays(10*time.Millisecond, 10*time.Millisecond),
		sessionservice.WithMetrics(m),
	)
	t.Cleanup(controller.Close)

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, log, controller, invoiceService, limiter, reg)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func snapshot(t *testing.T, srv *httptest.Server) models.SessionSnapshot {
	t.Helper()
	code, body := do(t, srv, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, code)

	var env snapshotEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return env.Data
}

func TestRoutes_UpgradeFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	code, _ := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)

	code, body := do(t, srv, http.MethodGet, "/api/v1/plans", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"gold"`)

	assert.Equal(t, models.StageUnregistered, snapshot(t, srv).Stage)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/session/register", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/session/plan", `{"plan_id":"silver"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/session/subscriber", `{"name":"A. Subscriber","email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, srv, http.MethodPost, "/api/v1/session/payment", "")
	require.Equal(t, http.StatusAccepted, code)
	assert.Contains(t, body, `"plan_name":"Silver"`)

	require.Eventually(t, func() bool {
		snap := snapshot(t, srv)
		return snap.Stage == models.StagePlanActive && snap.InvoiceVisible
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "silver", snapshot(t, srv).CurrentPlanID)

	code, body = do(t, srv, http.MethodGet, "/api/v1/session/invoice?format=html", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "A. Subscriber")

	code, _ = do(t, srv, http.MethodDelete, "/api/v1/session/invoice", "")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, snapshot(t, srv).InvoiceVisible)

	require.Eventually(t, func() bool {
		_, body := do(t, srv, http.MethodGet, "/metrics", "")
		return strings.Contains(body, `subscription_plans_invoice_deliveries_total{result="simulated"} 1`)
	}, 2*time.Second, 10*time.Millisecond)

	code, body = do(t, srv, http.MethodGet, "/api/v1/notifications", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Successfully upgraded to Silver plan! Invoice has been sent to a@b.com.")

	code, _ = do(t, srv, http.MethodPost, "/api/v1/session/plan", `{"plan_id":"bronze"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/session/cancel", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "free", snapshot(t, srv).CurrentPlanID)
}

func TestRoutes_SessionErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{name: "некорректный JSON", method: http.MethodPost, path: "/api/v1/session/register", body: `{`, code: http.StatusBadRequest},
		{name: "некорректный email", method: http.MethodPost, path: "/api/v1/session/register", body: `{"email":"nope"}`, code: http.StatusUnprocessableEntity},
		{name: "выбор плана до регистрации", method: http.MethodPost, path: "/api/v1/session/plan", body: `{"plan_id":"gold"}`, code: http.StatusConflict},
		{name: "оплата без оформления", method: http.MethodPost, path: "/api/v1/session/payment", code: http.StatusConflict},
		{name: "отмена бесплатного плана", method: http.MethodPost, path: "/api/v1/session/cancel", code: http.StatusConflict},
		{name: "счёт не выписан", method: http.MethodGet, path: "/api/v1/session/invoice", code: http.StatusNotFound},
		{name: "неизвестное действие плеера", method: http.MethodPost, path: "/api/v1/session/playback/rewind", code: http.StatusBadRequest},
		{name: "неизвестное уведомление", method: http.MethodDelete, path: "/api/v1/notifications/missing", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRoutes_Playback(t *testing.T) {
	srv := newTestServer(t, nil)

	code, _ := do(t, srv, http.MethodPost, "/api/v1/session/playback/play", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.PlaybackPlaying, snapshot(t, srv).Playback)

	code, _ = do(t, srv, http.MethodPost, "/api/v1/session/playback/pause", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.PlaybackPaused, snapshot(t, srv).Playback)
}

func TestRoutes_SendInvoice(t *testing.T) {
	srv := newTestServer(t, rate.NewLimiter(rate.Every(time.Hour), 1))

	payload, err := json.Marshal(models.InvoiceData{
		SubscriberName:  "A. Subscriber",
		SubscriberEmail: "a@b.com",
		PlanName:        "Gold",
		PlanPrice:       200,
		InvoiceNumber:   "123456",
		InvoiceDate:     "10/17/2026",
	})
	require.NoError(t, err)

	resp, err := srv.Client().Post(srv.URL+"/send-invoice", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, invoiceservice.MessageSimulated, body["message"])

	// лимит общий для обоих путей
	code, _ := do(t, srv, http.MethodPost, "/api/send-invoice", string(payload))
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestRoutes_Docs(t *testing.T) {
	srv := newTestServer(t, nil)

	code, body := do(t, srv, http.MethodGet, "/docs/doc.json", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "/send-invoice")
}

func TestAuditHandler(t *testing.T) {
	var buf bytes.Buffer
	h := auditHandler(slog.New(slog.NewTextHandler(&buf, nil)))

	ev, err := json.Marshal(sessionservice.Event{
		Type:          sessionservice.EventPlanActivated,
		PlanID:        "gold",
		InvoiceNumber: "123456",
	})
	require.NoError(t, err)

	require.NoError(t, h(ev))
	assert.Contains(t, buf.String(), "type=plan.activated")
	assert.Contains(t, buf.String(), "plan=gold")

	require.NoError(t, h([]byte("{")))
	assert.Contains(t, buf.String(), "skip malformed event")
}
