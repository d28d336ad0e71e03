// health.go — обработчики служебных endpoints.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (PostgreSQL доступен)
// /metrics — Prometheus метрики
// /api/v1/openapi.yaml — OpenAPI контракт
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/skillmatch/internal/config"
)

const serviceName = "skillmatch"

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// DependencyMonitor — фоновый мониторинг зависимостей (topologymetrics).
type DependencyMonitor interface {
	PostgresHealthy() bool
}

// HealthHandler — обработчик служебных endpoints.
type HealthHandler struct {
	pgChecker   ReadinessChecker
	monitor     DependencyMonitor
	promHandler http.Handler
	openAPISpec []byte
}

// NewHealthHandler создаёт обработчик служебных endpoints.
// pgChecker может быть nil: readiness тогда вернёт "fail".
func NewHealthHandler(pgChecker ReadinessChecker, openAPISpec []byte) *HealthHandler {
	return &HealthHandler{
		pgChecker:   pgChecker,
		promHandler: promhttp.Handler(),
		openAPISpec: openAPISpec,
	}
}

// SetDependencyMonitor подключает результат фонового мониторинга
// к ответу readiness. На статус readiness он не влияет.
func (h *HealthHandler) SetDependencyMonitor(m DependencyMonitor) {
	h.monitor = m
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
	} `json:"checks"`
	// Monitor — последняя фоновая проверка topologymetrics (ok, fail)
	Monitor string `json:"monitor,omitempty"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. Возвращает 200 (ok) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	if h.pgChecker != nil {
		status, msg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}
	resp.Status = resp.Checks.PostgreSQL.Status
	if h.monitor != nil {
		resp.Monitor = "fail"
		if h.monitor.PostgresHealthy() {
			resp.Monitor = "ok"
		}
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// GetOpenAPI — исходный YAML контракта.
func (h *HealthHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openAPISpec)
}
