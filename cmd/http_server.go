package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	gonanoid "github.com/jaevor/go-nanoid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/marketplace-payments/internal"
	"github.com/frahmantamala/marketplace-payments/internal/audit"
	auditPostgres "github.com/frahmantamala/marketplace-payments/internal/audit/postgres"
	"github.com/frahmantamala/marketplace-payments/internal/auth"
	"github.com/frahmantamala/marketplace-payments/internal/core/events"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
	"github.com/frahmantamala/marketplace-payments/internal/notification"
	notificationPostgres "github.com/frahmantamala/marketplace-payments/internal/notification/postgres"
	"github.com/frahmantamala/marketplace-payments/internal/order"
	orderPostgres "github.com/frahmantamala/marketplace-payments/internal/order/postgres"
	"github.com/frahmantamala/marketplace-payments/internal/payment"
	paymentPostgres "github.com/frahmantamala/marketplace-payments/internal/payment/postgres"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/ratelimit"
	reviewPostgres "github.com/frahmantamala/marketplace-payments/internal/review/postgres"
	"github.com/frahmantamala/marketplace-payments/internal/transport"
	"github.com/frahmantamala/marketplace-payments/internal/transport/rest"
	"github.com/frahmantamala/marketplace-payments/internal/withdrawal"
	withdrawalPostgres "github.com/frahmantamala/marketplace-payments/internal/withdrawal/postgres"
	"github.com/frahmantamala/marketplace-payments/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Logger *slog.Logger

	Metrics  *metrics.Metrics
	EventBus *events.EventBus
	Kafka    *events.KafkaPublisher

	Gateway           *paymentgateway.Client
	OrderService      *order.Service
	PaymentService    *payment.Service
	WithdrawalService *withdrawal.Service
	Notifications     *notification.Service
	AuditRepo         *auditPostgres.RepositoryPostgres
	TokenValidator    auth.TokenValidator
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps.DB.DB, deps.Gateway, deps.TokenValidator, rest.Handlers{
		Order:      order.NewHandler(deps.OrderService),
		Payment:    payment.NewHandler(deps.PaymentService),
		PaymentWebhook: payment.NewWebhookHandler(
			transport.NewBaseHandler(deps.Logger), deps.PaymentService,
			deps.Config.Gateway.WebhookSecret, deps.Logger),
		Withdrawal:   withdrawal.NewHandler(deps.WithdrawalService),
		Notification: notification.NewHandler(deps.Notifications),
		Audit:        audit.NewHandler(deps.AuditRepo),
	}, deps.Config.Server.OpenAPISpecPath, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Close()
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func (d *Dependencies) Close() {
	if d.Kafka != nil {
		if err := d.Kafka.Close(); err != nil {
			slog.Error("Kafka close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		slog.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	m := metrics.New()
	bus := events.NewEventBus(lg)

	var kafkaPublisher *events.KafkaPublisher
	if config.Events.KafkaEnabled {
		kafkaPublisher = events.NewKafkaPublisher(config.Events.KafkaBrokers, config.Events.KafkaTopic, lg)
		kafkaPublisher.Register(bus)
	}

	newOrderNumber, err := orderNumberGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to build order number generator: %w", err)
	}

	orderRepo := orderPostgres.NewRepository(gormDB)
	paymentRepo := paymentPostgres.NewRepository(gormDB)
	withdrawalRepo := withdrawalPostgres.NewRepository(gormDB)
	auditRepo := auditPostgres.NewRepository(gormDB)
	notificationRepo := notificationPostgres.NewRepository(gormDB)
	reviewRepo := reviewPostgres.NewRepository(gormDB)

	auditRecorder := audit.NewRecorder(lg, auditRepo)
	notifications := notification.NewService(lg, notificationRepo)

	orderService := order.NewService(
		lg, orderRepo, paymentRepo, reviewRepo, auditRecorder, notifications, bus, m,
		config.Payments.CommissionPercent, newOrderNumber)

	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:        config.Gateway.BaseURL,
		SecretKey:      config.Gateway.SecretKey,
		PublicKey:      config.Gateway.PublicKey,
		CallbackURL:    config.Gateway.CallbackURL,
		RequestTimeout: config.Gateway.RequestTimeout,
		ReadyTimeout:   config.Gateway.ReadyTimeout,
	}, lg)

	poller := payment.NewPoller(lg, paymentRepo,
		config.Payments.PollInterval, config.Payments.PollDeadline, m)
	paymentService := payment.NewService(
		lg, gatewayClient, paymentRepo, orderService, poller, m,
		config.Payments.CommissionPercent)

	limiter := ratelimit.New(config.Withdrawals.RateLimit, config.Withdrawals.RateWindow)
	withdrawalService := withdrawal.NewService(
		lg, withdrawalRepo, auditRecorder, notifications, bus, limiter, m,
		config.Withdrawals.MinAmountKobo, config.Payments.Currency)

	tokenValidator := auth.NewJWTTokenGenerator(
		config.Security.SessionSecret, config.Security.AccessTokenDuration)

	return &Dependencies{
		Config:            config,
		DB:                db,
		Gorm:              gormDB,
		Logger:            lg,
		Metrics:           m,
		EventBus:          bus,
		Kafka:             kafkaPublisher,
		Gateway:           gatewayClient,
		OrderService:      orderService,
		PaymentService:    paymentService,
		WithdrawalService: withdrawalService,
		Notifications:     notifications,
		AuditRepo:         auditRepo,
		TokenValidator:    tokenValidator,
	}, nil
}

// orderNumberGenerator yields collision-resistant human-pasteable order
// numbers like MKT-4F7ZK2Q9XB.
func orderNumberGenerator() (func() string, error) {
	gen, err := gonanoid.CustomASCII("0123456789ABCDEFGHJKMNPQRSTVWXYZ", 10)
	if err != nil {
		return nil, err
	}
	return func() string {
		return "MKT-" + gen()
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
