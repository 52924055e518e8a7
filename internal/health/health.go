package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ichad17/retro-configurator/internal/domain"
)

// Status — агрегированное состояние компонента или сервиса целиком.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ErrDegraded помечает проверку как деградацию, а не отказ:
// сервис продолжает работать, но требует внимания.
var ErrDegraded = errors.New("component degraded")

// CheckFunc — одна проверка компонента. nil — здоров,
// ErrDegraded (в том числе обёрнутый) — degraded, остальное — unhealthy.
type CheckFunc func(ctx context.Context) error

// Check — результат одной проверки в ответе /healthz.
type Check struct {
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response — тело ответа /healthz.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Registry держит именованные проверки и отдаёт HTTP-обработчики
// liveness/readiness/health. Таймаут применяется к каждой проверке отдельно.
type Registry struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	version   string
	timeout   time.Duration
	startTime time.Time
}

// NewRegistry создаёт реестр проверок. Version попадает в ответ /healthz.
func NewRegistry(version string) *Registry {
	return &Registry{
		checks:    make(map[string]CheckFunc),
		version:   version,
		timeout:   3 * time.Second,
		startTime: time.Now(),
	}
}

// Register добавляет или заменяет проверку с данным именем.
func (r *Registry) Register(name string, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = fn
}

func (r *Registry) snapshot() (map[string]CheckFunc, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	checks := make(map[string]CheckFunc, len(r.checks))
	names := make([]string, 0, len(r.checks))
	for name, fn := range r.checks {
		checks[name] = fn
		names = append(names, name)
	}
	sort.Strings(names)
	return checks, names
}

func (r *Registry) run(ctx context.Context, fn CheckFunc) Check {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	err := fn(ctx)
	result := Check{
		Status:     StatusHealthy,
		DurationMs: time.Since(started).Milliseconds(),
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrDegraded):
		result.Status = StatusDegraded
		result.Message = err.Error()
	default:
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// Handler возвращает обработчик /healthz: полный отчёт по всем проверкам.
// Unhealthy любого компонента даёт 503, degraded не меняет HTTP-статус.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		checks, names := r.snapshot()

		results := make(map[string]Check, len(checks))
		overall := StatusHealthy
		for _, name := range names {
			result := r.run(req.Context(), checks[name])
			results[name] = result

			if result.Status == StatusUnhealthy {
				overall = StatusUnhealthy
			} else if result.Status == StatusDegraded && overall == StatusHealthy {
				overall = StatusDegraded
			}
		}

		resp := Response{
			Status:        overall,
			Timestamp:     time.Now().UTC(),
			Checks:        results,
			Version:       r.version,
			UptimeSeconds: int64(time.Since(r.startTime).Seconds()),
		}

		code := http.StatusOK
		if overall == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// ReadinessHandler возвращает обработчик /readyz: 503 при первом же
// unhealthy-компоненте, degraded не блокирует трафик.
func (r *Registry) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		checks, names := r.snapshot()

		for _, name := range names {
			result := r.run(req.Context(), checks[name])
			if result.Status == StatusUnhealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready: " + name))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

// LivenessHandler — /livez, всегда 200: процесс жив, пока отвечает.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Pinger покрывает postgres.Store и любой другой компонент с Ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck оборачивает Ping компонента в CheckFunc.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// OutboxBacklogCheck следит за очередью исходящих событий: рост очереди
// выше maxPending означает, что publisher не успевает, и сервис degraded.
func OutboxBacklogCheck(repo domain.OutboxRepository, maxPending int) CheckFunc {
	return func(ctx context.Context) error {
		stats, err := repo.Stats()
		if err != nil {
			return fmt.Errorf("outbox stats: %w", err)
		}
		if stats.PendingCount > maxPending {
			return fmt.Errorf("%w: %d pending outbox messages (max %d)",
				ErrDegraded, stats.PendingCount, maxPending)
		}
		return nil
	}
}
