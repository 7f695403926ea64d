package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/marketplace-payments/internal/audit"
	"github.com/frahmantamala/marketplace-payments/internal/auth"
	"github.com/frahmantamala/marketplace-payments/internal/notification"
	"github.com/frahmantamala/marketplace-payments/internal/order"
	"github.com/frahmantamala/marketplace-payments/internal/payment"
	"github.com/frahmantamala/marketplace-payments/internal/transport/middleware"
	"github.com/frahmantamala/marketplace-payments/internal/transport/swagger"
	"github.com/frahmantamala/marketplace-payments/internal/withdrawal"
)

type Handlers struct {
	Order          *order.Handler
	Payment        *payment.Handler
	PaymentWebhook *payment.WebhookHandler
	Withdrawal     *withdrawal.Handler
	Notification   *notification.Handler
	Audit          *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, gateway GatewayPinger, tokenValidator auth.TokenValidator, handlers Handlers, openapiSpecPath string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, gateway)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openapiSpecPath)
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())
	router.Handle("/metrics", promhttp.Handler())

	authMiddleware := middleware.Auth(tokenValidator, logger)

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		if validator, err := middleware.OpenAPIValidator(openapiSpecPath, logger); err != nil {
			logger.Warn("openapi validation disabled", "spec", openapiSpecPath, "error", err)
		} else {
			r.Use(validator)
		}

		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway-facing routes, no user auth
		if handlers.PaymentWebhook != nil {
			r.Post("/payments/webhook", handlers.PaymentWebhook.HandleGatewayWebhook)
		}
		if handlers.Payment != nil {
			// The hosted payment page redirects the browser here.
			r.Get("/payments/callback", handlers.Payment.Callback)
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authMiddleware)

			if handlers.Order != nil {
				pr.Route("/orders", func(or chi.Router) {
					or.Post("/", handlers.Order.CreateOrder)
					or.Get("/", handlers.Order.ListOrders)
					or.Get("/{id}", handlers.Order.GetOrder)
					or.Post("/{id}/deliver", handlers.Order.DeliverOrder)
					or.Post("/{id}/complete", handlers.Order.CompleteOrder)
					or.Post("/{id}/revision", handlers.Order.RequestRevision)
					or.Post("/{id}/dispute", handlers.Order.DisputeOrder)
					or.Post("/{id}/cancel", handlers.Order.CancelOrder)

					if handlers.Payment != nil {
						or.Get("/{id}/payment", handlers.Payment.GetOrderPayment)
					}
				})
			}

			if handlers.Payment != nil {
				pr.Post("/payments/checkout", handlers.Payment.Checkout)
			}

			if handlers.Withdrawal != nil {
				pr.Route("/withdrawals", func(wr chi.Router) {
					wr.Post("/", handlers.Withdrawal.RequestWithdrawal)
					wr.Get("/", handlers.Withdrawal.ListWithdrawals)
					wr.Get("/balance", handlers.Withdrawal.GetBalance)
				})
			}

			if handlers.Notification != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", handlers.Notification.ListNotifications)
					nr.Patch("/{id}/read", handlers.Notification.MarkRead)
				})
			}

			// Admin routes; handlers enforce the role themselves.
			pr.Route("/admin", func(ar chi.Router) {
				if handlers.Order != nil {
					ar.Post("/orders/{id}/resolve-dispute", handlers.Order.ResolveDispute)
				}
				if handlers.Withdrawal != nil {
					ar.Patch("/withdrawals/{id}/approve", handlers.Withdrawal.ApproveWithdrawal)
					ar.Patch("/withdrawals/{id}/reject", handlers.Withdrawal.RejectWithdrawal)
				}
				if handlers.Audit != nil {
					ar.Get("/audit/{table}/{id}", handlers.Audit.GetRecordTrail)
				}
			})
		})
	})
}
