package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/vendaplan/backend/api/transport"
	"github.com/vendaplan/backend/internal/infrastructure/monitor"
	"github.com/vendaplan/backend/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	report := transport.HealthReport{
		Timestamp: time.Now().UTC(),
		Services: transport.ServiceSet{
			PostgreSQL: status.PostgreSQL,
			Redis:      status.Redis,
			Queue: transport.QueueStatus{
				Online: status.Queue,
				Depth:  status.QueueDepth,
			},
		},
	}

	// The service stays usable offline (local cache + queue), so only a
	// broken queue makes the instance unhealthy.
	if status.Queue {
		h.respondSuccess(ctx, http.StatusOK, report)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", report))
}
