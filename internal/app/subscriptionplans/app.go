package subscriptionplans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-plans/internal/cache"
	"github.com/magabrotheeeer/subscription-plans/internal/config"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-plans/internal/metrics"
	invoiceservice "github.com/magabrotheeeer/subscription-plans/internal/services/invoice"
	sessionservice "github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

const auditQueue = "subscription.audit"

// App HTTP сервер вместе с контроллером сессии и внешними подключениями.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	controller *sessionservice.Controller
	cache      *cache.Cache
	amqpConn   *amqp.Connection
	amqpCh     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.subscriptionplans.New"

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	transport := smtp.NewTransport(cfg.SMTP, logger)
	invoiceService := invoiceservice.NewService(cfg.SMTP, logger, transport,
		invoiceservice.WithMetrics(m),
		invoiceservice.WithSimulateDelay(cfg.SimulatedSend),
	)
	if invoiceService.Simulated() {
		logger.Warn("smtp credentials are not set, invoice emails will be simulated")
	}

	app := &App{logger: logger}

	var registry invoiceservice.Registry = invoiceservice.NewMemoryRegistry()
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.cache = cacheRedis
		registry = invoiceservice.NewRedisRegistry(cacheRedis)
	}

	opts := []sessionservice.Option{
		sessionservice.WithSessionConfig(cfg.Session),
		sessionservice.WithMetrics(m),
		sessionservice.WithNotifier(sessionservice.NewNotifier(cfg.NotificationTTL)),
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := app.setupEvents(ctx, cfg.RabbitMQ)
		if err != nil {
			app.closeConnections()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, sessionservice.WithPublisher(publisher))
	}

	app.controller = sessionservice.New(logger, invoiceService, invoiceservice.NewNumberGenerator(registry), opts...)

	router := chi.NewRouter()
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	RegisterRoutes(router, logger, app.controller, invoiceService, limiter, reg)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// setupEvents подключается к RabbitMQ, объявляет очереди событий и
// запускает чтение очереди аудита.
func (a *App) setupEvents(ctx context.Context, cfg config.RabbitMQ) (*rabbitmq.Publisher, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	a.amqpConn = conn

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange, rabbitmq.EventQueues())
	if err != nil {
		return nil, err
	}
	a.amqpCh = ch

	if err := rabbitmq.ConsumerMessage(ctx, a.logger, ch, auditQueue, auditHandler(a.logger)); err != nil {
		return nil, err
	}
	return rabbitmq.NewPublisher(ch, cfg.RabbitMQExchange), nil
}

// auditHandler пишет доменные события в лог. Нечитаемое сообщение
// подтверждается, чтобы не зациклить очередь.
func auditHandler(log *slog.Logger) func([]byte) error {
	return func(body []byte) error {
		var ev sessionservice.Event
		if err := json.Unmarshal(body, &ev); err != nil {
			log.Warn("skip malformed event", slog.String("op", "app.audit"), sl.Err(err))
			return nil
		}
		log.Info("session event",
			slog.String("op", "app.audit"),
			slog.String("type", ev.Type),
			slog.String("plan", ev.PlanID),
			slog.String("invoice", ev.InvoiceNumber),
			slog.Time("occurred_at", ev.OccurredAt),
		)
		return nil
	}
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	a.controller.Close()
	a.closeConnections()
}

func (a *App) closeConnections() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
}
