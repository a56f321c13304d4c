package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/vendaplan/backend/api/transport"
	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/pkg/httpcontext"
	scheduleUC "github.com/vendaplan/backend/usecase/schedule"
)

type ScheduleHandler struct {
	baseHandler
	uc *scheduleUC.UseCase
}

func NewScheduleHandler(uc *scheduleUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Load the reconciled daily schedule
// @Tags schedule
// @Router /api/v1/schedule [get]
func (h *ScheduleHandler) GetSchedule(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sched, err := h.uc.Load(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sched)
}

// @Summary Create activity
// @Tags activities
// @Router /api/v1/activities [post]
func (h *ScheduleHandler) CreateActivity(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	activity, ok := h.parseActivity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateActivity(stdCtx, userID, activity)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update activity
// @Tags activities
// @Router /api/v1/activities/{id} [put]
func (h *ScheduleHandler) UpdateActivity(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	activity, ok := h.parseActivity(ctx)
	if !ok {
		return
	}
	if activity.ID == 0 {
		activity.ID = pathActivityID(ctx)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateActivity(stdCtx, userID, activity)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete activity
// @Tags activities
// @Router /api/v1/activities/{id} [delete]
func (h *ScheduleHandler) DeleteActivity(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id := pathActivityID(ctx)
	if id == 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing activity id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteActivity(stdCtx, userID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// parseActivity decodes the body straight into the domain type: its tolerant
// scalars are the construct-or-reject boundary, and the use case runs the
// sanitizer before anything is stored.
func (h *ScheduleHandler) parseActivity(ctx *fasthttp.RequestCtx) (*domain.Activity, bool) {
	var activity domain.Activity
	if err := json.Unmarshal(ctx.PostBody(), &activity); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}
	return &activity, true
}

func pathActivityID(ctx *fasthttp.RequestCtx) domain.ActivityID {
	raw, _ := ctx.UserValue("id").(string)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return domain.ActivityID(id)
}
