// Package subscriptionplans собирает HTTP приложение тарифных планов.
package subscriptionplans

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// регистрация swagger спецификации для /docs
	_ "github.com/magabrotheeeer/subscription-plans/docs"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/invoice/send"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/notifications/dismiss"
	notificationlist "github.com/magabrotheeeer/subscription-plans/internal/http/handlers/notifications/list"
	planlist "github.com/magabrotheeeer/subscription-plans/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/abandon"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/cancel"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/invoice"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/invoiceclose"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/payment"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/playback"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/read"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/register"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/selectplan"
	"github.com/magabrotheeeer/subscription-plans/internal/http/handlers/session/subscriber"
	"github.com/magabrotheeeer/subscription-plans/internal/http/middlewarectx"
	sessionservice "github.com/magabrotheeeer/subscription-plans/internal/services/session"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, controller *sessionservice.Controller, invoiceService send.Service, limiter *rate.Limiter, gatherer prometheus.Gatherer) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	sendInvoice := send.New(logger, invoiceService).ServeHTTP
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
		r.Post("/send-invoice", sendInvoice)
		r.Post("/api/send-invoice", sendInvoice)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", planlist.New(logger).ServeHTTP)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", read.New(logger, controller).ServeHTTP)
			r.Post("/register", register.New(logger, controller).ServeHTTP)
			r.Post("/plan", selectplan.New(logger, controller).ServeHTTP)
			r.Post("/subscriber", subscriber.New(logger, controller).ServeHTTP)
			r.Post("/checkout/abandon", abandon.New(logger, controller).ServeHTTP)
			r.Post("/payment", payment.New(logger, controller).ServeHTTP)
			r.Post("/cancel", cancel.New(logger, controller).ServeHTTP)
			r.Post("/playback/{action}", playback.New(logger, controller).ServeHTTP)
			r.Get("/invoice", invoice.New(logger, controller).ServeHTTP)
			r.Delete("/invoice", invoiceclose.New(logger, controller).ServeHTTP)
		})

		r.Get("/notifications", notificationlist.New(logger, controller).ServeHTTP)
		r.Delete("/notifications/{id}", dismiss.New(logger, controller).ServeHTTP)
	})

	r.Get("/health", health.New().ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
