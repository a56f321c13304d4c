package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/vendaplan/backend/api/transport"
	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/pkg/httpcontext"
	scheduleUC "github.com/vendaplan/backend/usecase/schedule"
)

type TransferHandler struct {
	baseHandler
	uc *scheduleUC.UseCase
}

func NewTransferHandler(uc *scheduleUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Export the whole schedule state as a JSON blob
// @Tags transfer
// @Router /api/v1/export [get]
func (h *TransferHandler) Export(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	blob, err := h.uc.Export(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="agenda.json"`)
	h.respondSuccess(ctx, http.StatusOK, blob)
}

// @Summary Import a previously exported state blob
// @Tags transfer
// @Router /api/v1/import [post]
func (h *TransferHandler) Import(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var blob scheduleUC.ExportBlob
	if err := json.Unmarshal(ctx.PostBody(), &blob); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sched, err := h.uc.Import(stdCtx, userID, &blob)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sched)
}
