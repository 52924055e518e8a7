package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ichad17/retro-configurator/internal/health"
	"github.com/ichad17/retro-configurator/internal/metrics"
	idemsvc "github.com/ichad17/retro-configurator/internal/service/idempotency"
	"github.com/ichad17/retro-configurator/internal/service/order"
	"github.com/ichad17/retro-configurator/internal/service/outbox"
	transport "github.com/ichad17/retro-configurator/internal/transport/http"
	"github.com/ichad17/retro-configurator/internal/version"
)

// Run собирает зависимости и запускает приложение: HTTP API, сервер
// метрик и фоновые воркеры. Блокируется до отмены ctx или фатальной
// ошибки одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := order.NewService(deps.Orders, deps.Outbox, metrics.NewOrderMetrics(),
		logger.WithField("layer", "service"))
	handler := transport.NewOrderHandler(svc, deps.Payments, deps.Idempotency,
		logger.WithField("layer", "http"))
	router := transport.NewRouter(handler, logger.WithField("layer", "http"))

	checks := health.NewRegistry(version.String())
	if deps.Store != nil {
		checks.Register("postgres", health.PingCheck(deps.Store))
	}
	checks.Register("outbox", health.OutboxBacklogCheck(deps.Outbox, cfg.OutboxMaxPending))

	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if deps.Publisher != nil {
		worker := outbox.NewWorker(deps.Outbox, deps.Publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithDeadLetterPublisher(deps.DeadLetter),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx)
		}()
	} else {
		logger.Info("kafka is not configured, outbox events will stay pending")
	}

	cleanup := idemsvc.NewCleanupWorker(deps.Idempotency,
		idemsvc.WithLogger(logger.WithField("layer", "idempotency")),
		idemsvc.WithInterval(cfg.IdempotencyCleanupInterval),
		idemsvc.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(workerCtx)
	}()

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	metricsSrv := newMetricsServer(cfg.MetricsAddr, checks)

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http api listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.WithField("addr", cfg.MetricsAddr).Info("metrics and health endpoints listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		runErr = ctx.Err()
	case err := <-errCh:
		logger.WithError(err).Error("server failed")
		runErr = err
	}

	stopWorkers()
	shutdownHTTP(apiSrv, logger)
	shutdownHTTP(metricsSrv, logger)
	wg.Wait()

	return runErr
}

// newMetricsServer собирает операционный HTTP-сервер:
// /metrics для Prometheus и health-probes для оркестратора.
func newMetricsServer(addr string, checks *health.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checks.Handler())
	mux.Handle("/readyz", checks.ReadinessHandler())
	mux.HandleFunc("/livez", health.LivenessHandler)
	return &http.Server{Addr: addr, Handler: mux}
}

func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http server shutdown with error")
	}
}
