// Package app wires the service together and runs the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tkivila/craftshop/internal/auth"
	"github.com/tkivila/craftshop/internal/domain/order"
	"github.com/tkivila/craftshop/internal/domain/user"
	"github.com/tkivila/craftshop/internal/handler"
	"github.com/tkivila/craftshop/internal/invoice"
	"github.com/tkivila/craftshop/internal/notify"
	"github.com/tkivila/craftshop/internal/repository"
	"github.com/tkivila/craftshop/pkg/health"
	"github.com/tkivila/craftshop/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, _ *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool, repository.Schema()); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health checks.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	shippingRepo := repository.NewShippingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	sequenceRepo := repository.NewSequenceRepository(pool)
	contentRepo := repository.NewContentRepository(pool)

	// Auth and external collaborators.
	tokens := auth.NewTokenCodec(cfg.TokenSecret, 24*time.Hour)
	invoiceTokens := auth.NewTokenCodec(cfg.Invoice.Secret, 2*time.Minute)
	invoiceClient := invoice.NewClient(cfg.Invoice.URL, invoiceTokens, cfg.Invoice.Timeout)
	mailClient := notify.NewMailClient(cfg.Mail.URL, cfg.Mail.Timeout)
	alertClient := notify.NewTelegramClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Timeout)
	dispatcher := notify.NewDispatcher(contentRepo, mailClient, alertClient)

	// Domain services.
	directory := user.NewDirectory(userRepo, auth.NewBcryptHasher(0), cfg.DefaultPassword)
	orderService := order.NewService(
		directory,
		productRepo,
		shippingRepo,
		sequenceRepo,
		orderRepo,
		invoiceClient,
		dispatcher,
		cfg.FollowUpTimeout,
		lg.Named("orders"),
	)

	// HTTP routes.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.New(orderService, productRepo, shippingRepo, tokens).Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", "Authorization"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: flip readiness, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
