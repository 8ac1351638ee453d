package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joelkehle/idea-validation/internal/config"
	"github.com/joelkehle/idea-validation/internal/httpapi"
	"github.com/joelkehle/idea-validation/internal/render"
	"github.com/joelkehle/idea-validation/internal/sources"
	"github.com/joelkehle/idea-validation/internal/store"
	"github.com/joelkehle/idea-validation/internal/telemetry"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/joelkehle/idea-validation/internal/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Optional YAML config file")
	enablePDF := flag.Bool("pdf", true, "Serve ?format=pdf through headless Chrome")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	logger := config.NewLogger(cfg.Logging)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer, shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.WithError(err).Fatal("tracing setup failed")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("tracing shutdown")
		}
	}()

	engine, err := validation.NewEngineFromCredentials(cfg.Credentials, validation.Options{
		LLMProvider: cfg.LLM.Provider,
		LLMModel:    cfg.LLM.Model,
		LLMAttempts: cfg.LLM.Attempts,
		Cache:       newCache(ctx, cfg.Redis, logger),
		CacheTTL:    cfg.Redis.CacheTTL,
		HTTPClient:  &http.Client{Timeout: 20 * time.Second},
		Logger:      logger,
		Tracer:      tracer,
	})
	if err != nil {
		logger.WithError(err).Fatal("engine setup failed")
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.Database.Path).Fatal("failed to initialize sqlite store")
	}
	defer st.Close()
	go st.RunSweeper(ctx, cfg.Server.SweepInterval, logger)

	var pdf httpapi.PDFRenderer
	if *enablePDF {
		pdf = render.NewPDFRenderer(os.Getenv("CHROME_PATH"))
	}
	h := httpapi.NewServer(engine, st, workflow.NewAssistant(engine.Executor(), logger), httpapi.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		RatePerMinute:  cfg.RateLimit.PerMinute,
		RateBurst:      cfg.RateLimit.Burst,
		PDF:            pdf,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(logrus.Fields{"addr": srv.Addr, "db": cfg.Database.Path}).Info("idea-validator listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
	logger.Info("idea-validator stopped")
}

// newCache prefers Redis and falls back to process memory when Redis is
// unset or unreachable.
func newCache(ctx context.Context, cfg config.RedisConfig, logger logrus.FieldLogger) sources.Cache {
	if cfg.Address == "" {
		return sources.NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.Address).Warn("redis unavailable; using in-memory cache")
		_ = client.Close()
		return sources.NewMemoryCache()
	}
	logger.WithField("addr", cfg.Address).Info("using redis lookup cache")
	return sources.NewRedisCache(client, "")
}
