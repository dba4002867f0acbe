package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"libraryapi/docs"
	"libraryapi/internal/config"
	handlers "libraryapi/internal/http/handler"
	"libraryapi/internal/http/middleware"
	"libraryapi/internal/model"
	"libraryapi/internal/otel"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("otel_shutdown_failed", zap.Error(err))
		}
	}()

	// Storage client is opened once and shared by every request.
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend(b, log)

	if err := b.migrate(ctx); err != nil {
		return err
	}

	app, err := newApp(cfg, log, b, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", zap.String("addr", ":"+cfg.Port), zap.String("driver", cfg.StorageDriver))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newApp assembles the Fiber app: global middleware, metrics, Swagger and
// the three resource route tables backed by b.
func newApp(cfg *config.AppConfig, log *zap.Logger, b *backend, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if cfg.SwaggerEnabled {
		// Swagger UI with dynamic host and scheme
		app.Get("/swagger/*", func(c *fiber.Ctx) error {
			scheme := c.Protocol()
			if proto := c.Get("X-Forwarded-Proto"); proto != "" {
				scheme = strings.Split(proto, ",")[0]
			}

			docs.SwaggerInfo.Host = c.Get("Host")
			docs.SwaggerInfo.Schemes = []string{scheme}

			return swagger.HandlerDefault(c)
		})
	}

	handlers.RegisterRoutes(app, b.ping,
		handlers.NewResource(model.Books, b.books, log),
		handlers.NewResource(model.Members, b.members, log),
		handlers.NewResource(model.StaffMembers, b.staff, log),
	)
	return app, nil
}
