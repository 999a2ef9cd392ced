package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/service"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

const probeTimeout = 3 * time.Second

// Probe is one dependency checked by /ready. An optional probe reports its
// state but never fails readiness.
type Probe struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

// MetricsHandler serves health, readiness and instrumentation endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	probes  []Probe
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, probes ...Probe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, probes: probes}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every probe and answers 503 when a required one fails.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.probes))
	for _, p := range h.probes {
		if err := p.Check(ctx); err != nil {
			checks[p.Name] = err.Error()
			if !p.Optional {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[p.Name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// Summary godoc
// @Summary Instrumentation snapshot
// @Tags Observability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "metrics disabled"))
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
