// Package handler exposes the protocol endpoints. Every endpoint shares the
// same envelope handling: a malformed envelope is rejected with error 20001
// before any downstream call; everything else flows through the discovery
// aggregator or the transaction router.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripsetu/backend/internal/application/discovery"
	"github.com/tripsetu/backend/internal/application/transaction"
	"github.com/tripsetu/backend/internal/domain/protocol"
	"github.com/tripsetu/backend/internal/infrastructure/registry"
	"github.com/tripsetu/backend/internal/interfaces/http/dto"
)

// RatingAck acknowledges a rating submission
type RatingAck struct {
	FeedbackAck bool `json:"feedback_ack"`
}

// ActionHandler serves the nine protocol endpoints
type ActionHandler struct {
	factory    *protocol.ContextFactory
	aggregator *discovery.Aggregator
	router     *transaction.Router
	logger     *zap.Logger
}

// NewActionHandler creates an ActionHandler
func NewActionHandler(factory *protocol.ContextFactory, aggregator *discovery.Aggregator, router *transaction.Router, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{
		factory:    factory,
		aggregator: aggregator,
		router:     router,
		logger:     logger.Named("http"),
	}
}

// RegisterRoutes registers the protocol endpoints
func (h *ActionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/search", h.Search)
	rg.POST("/select", h.Select)
	rg.POST("/init", h.Init)
	rg.POST("/confirm", h.Confirm)
	rg.POST("/status", h.Status)
	rg.POST("/cancel", h.Cancel)
	rg.POST("/update", h.Update)
	rg.POST("/support", h.Support)
	rg.POST("/rating", h.Rating)
}

// Search handles POST /search
func (h *ActionHandler) Search(c *gin.Context) {
	req, pctx, ok := h.bind(c, protocol.ActionSearch)
	if !ok {
		return
	}

	var msg protocol.SearchRequest
	if err := json.Unmarshal(req.Message, &msg); err != nil {
		h.badRequest(c, pctx, protocol.ActionSearch, "malformed search message")
		return
	}

	catalog, err := h.aggregator.Aggregate(c.Request.Context(), pctx, &msg)
	if err != nil {
		h.serviceError(c, pctx, protocol.ActionSearch, err)
		return
	}
	h.reply(c, pctx, protocol.ActionSearch, catalog)
}

// Select handles POST /select
func (h *ActionHandler) Select(c *gin.Context) {
	h.handleOrderAction(c, protocol.ActionSelect, h.router.Select)
}

// Init handles POST /init
func (h *ActionHandler) Init(c *gin.Context) {
	h.handleOrderAction(c, protocol.ActionInit, h.router.Init)
}

// Confirm handles POST /confirm
func (h *ActionHandler) Confirm(c *gin.Context) {
	h.handleOrderAction(c, protocol.ActionConfirm, h.router.Confirm)
}

// Update handles POST /update
func (h *ActionHandler) Update(c *gin.Context) {
	h.handleOrderAction(c, protocol.ActionUpdate, h.router.Update)
}

// orderActionFunc is the shared shape of select/init/confirm/update routing
type orderActionFunc func(ctx context.Context, pctx protocol.Context, req *protocol.OrderRequest) (*protocol.OrderResponse, error)

// handleOrderAction implements the shared order-action path
func (h *ActionHandler) handleOrderAction(c *gin.Context, action protocol.Action, fn orderActionFunc) {
	req, pctx, ok := h.bind(c, action)
	if !ok {
		return
	}

	var msg protocol.OrderRequest
	if err := json.Unmarshal(req.Message, &msg); err != nil {
		h.badRequest(c, pctx, action, "malformed order message")
		return
	}

	resp, err := fn(c.Request.Context(), pctx, &msg)
	if err != nil {
		h.serviceError(c, pctx, action, err)
		return
	}
	h.reply(c, pctx, action, resp)
}

// Status handles POST /status
func (h *ActionHandler) Status(c *gin.Context) {
	req, pctx, ok := h.bind(c, protocol.ActionStatus)
	if !ok {
		return
	}

	var msg protocol.StatusRequest
	if err := json.Unmarshal(req.Message, &msg); err != nil {
		h.badRequest(c, pctx, protocol.ActionStatus, "malformed status message")
		return
	}

	resp, err := h.router.Status(c.Request.Context(), pctx, &msg)
	if err != nil {
		h.serviceError(c, pctx, protocol.ActionStatus, err)
		return
	}
	h.reply(c, pctx, protocol.ActionStatus, resp)
}

// Cancel handles POST /cancel
func (h *ActionHandler) Cancel(c *gin.Context) {
	req, pctx, ok := h.bind(c, protocol.ActionCancel)
	if !ok {
		return
	}

	var msg protocol.CancelRequest
	if err := json.Unmarshal(req.Message, &msg); err != nil {
		h.badRequest(c, pctx, protocol.ActionCancel, "malformed cancel message")
		return
	}

	resp, err := h.router.Cancel(c.Request.Context(), pctx, &msg)
	if err != nil {
		h.serviceError(c, pctx, protocol.ActionCancel, err)
		return
	}
	h.reply(c, pctx, protocol.ActionCancel, resp)
}

// Support handles POST /support
func (h *ActionHandler) Support(c *gin.Context) {
	req, pctx, ok := h.bind(c, protocol.ActionSupport)
	if !ok {
		return
	}

	var msg protocol.SupportRequest
	if err := json.Unmarshal(req.Message, &msg); err != nil {
		h.badRequest(c, pctx, protocol.ActionSupport, "malformed support message")
		return
	}

	h.reply(c, pctx, protocol.ActionSupport, h.router.Support(&msg))
}

// Rating handles POST /rating
func (h *ActionHandler) Rating(c *gin.Context) {
	req, pctx, ok := h.bind(c, protocol.ActionRating)
	if !ok {
		return
	}

	var msg protocol.RatingRequest
	if err := json.Unmarshal(req.Message, &msg); err != nil {
		h.badRequest(c, pctx, protocol.ActionRating, "malformed rating message")
		return
	}

	if err := h.router.Rating(c.Request.Context(), pctx, &msg); err != nil {
		h.serviceError(c, pctx, protocol.ActionRating, err)
		return
	}
	h.reply(c, pctx, protocol.ActionRating, RatingAck{FeedbackAck: true})
}

// bind parses and validates the inbound envelope. A missing context or
// message is answered with 20001 immediately; no downstream call is made.
func (h *ActionHandler) bind(c *gin.Context, action protocol.Action) (*dto.ActionRequest, protocol.Context, bool) {
	var req dto.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pctx := h.factory.Continue(action, "")
		c.JSON(http.StatusBadRequest, dto.ErrorReply(pctx, action, dto.ErrCodeBadRequest, bindFailure(&req).Error()))
		return nil, protocol.Context{}, false
	}

	pctx := h.factory.Continue(action, req.Context.TransactionID)
	return &req, pctx, true
}

// bindFailure names the missing envelope block. The decoded fields survive a
// validation failure, so a nil context or empty message pinpoints the cause;
// anything else was unparseable JSON.
func bindFailure(req *dto.ActionRequest) error {
	switch {
	case req.Context == nil:
		return protocol.ErrMissingContext
	case len(req.Message) == 0:
		return protocol.ErrMissingMessage
	default:
		return errors.New("malformed request body")
	}
}

// reply sends a success envelope
func (h *ActionHandler) reply(c *gin.Context, pctx protocol.Context, action protocol.Action, message any) {
	envelope, err := dto.Reply(pctx, action, message)
	if err != nil {
		h.logger.Error("Failed to encode reply", zap.String("action", action.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorReply(pctx, action, dto.ErrCodeInternal, "internal error"))
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// badRequest answers a malformed message with 20001
func (h *ActionHandler) badRequest(c *gin.Context, pctx protocol.Context, action protocol.Action, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorReply(pctx, action, dto.ErrCodeBadRequest, message))
}

// serviceError maps service failures onto protocol errors: client-payload
// problems are 20001, everything else 20000
func (h *ActionHandler) serviceError(c *gin.Context, pctx protocol.Context, action protocol.Action, err error) {
	switch {
	case errors.Is(err, protocol.ErrMissingIntent),
		errors.Is(err, protocol.ErrMissingOrder),
		errors.Is(err, protocol.ErrMissingOrderID):
		h.badRequest(c, pctx, action, err.Error())
	case errors.Is(err, registry.ErrNoProvidersForCategory),
		errors.Is(err, registry.ErrNoProviderForService):
		h.logger.Warn("No provider registered for request",
			zap.String("action", action.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorReply(pctx, action, dto.ErrCodeInternal, err.Error()))
	default:
		h.logger.Error("Action failed",
			zap.String("action", action.String()),
			zap.String("transaction_id", pctx.TransactionID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorReply(pctx, action, dto.ErrCodeInternal, "internal error"))
	}
}
