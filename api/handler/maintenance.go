package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/vendaplan/backend/pkg/httpcontext"
	maintenanceUC "github.com/vendaplan/backend/usecase/maintenance"
)

type MaintenanceHandler struct {
	baseHandler
	uc *maintenanceUC.UseCase
}

func NewMaintenanceHandler(uc *maintenanceUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Collapse duplicated activities
// @Tags maintenance
// @Router /api/v1/maintenance/dedup [post]
func (h *MaintenanceHandler) Deduplicate(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Deduplicate(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}
