package handler

import (
	"net/http"
	"strings"

	"b2b_marketplace_backend/internal/quotes/service"
	"b2b_marketplace_backend/internal/quotes/transport"
	"b2b_marketplace_backend/platform/httpkit"
	"b2b_marketplace_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	paramQuoteNumber    = "quoteNumber"
)

// Handler handles HTTP requests for quotes
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the quote routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/buyer", h.ListAsBuyer)
	rg.GET("/supplier", h.ListAsSupplier)
	rg.GET("/:quoteNumber", h.Get)
	rg.POST("/:quoteNumber/respond", h.Respond)
	rg.POST("/:quoteNumber/counter-offer", h.CounterOffer)
	rg.POST("/:quoteNumber/approve", h.Approve)
	rg.POST("/:quoteNumber/reject", h.Reject)
	rg.POST("/:quoteNumber/cancel", h.Cancel)
	rg.POST("/:quoteNumber/extend", h.ExtendValidity)
	rg.POST("/:quoteNumber/convert", h.Convert)
	rg.GET("/:quoteNumber/messages", h.ListMessages)
	rg.POST("/:quoteNumber/messages", h.AddMessage)
	rg.POST("/:quoteNumber/attachments/presign", h.PresignAttachmentUpload)
}

// Create handles POST /api/v1/quotes
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if !h.bind(c, &req) {
		return
	}

	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.SetETag(c, result.Version)
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListAsBuyer handles GET /api/v1/quotes/buyer
func (h *Handler) ListAsBuyer(c *gin.Context) {
	req, actor, ok := h.bindList(c)
	if !ok {
		return
	}

	result, err := h.svc.ListAsBuyer(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAsSupplier handles GET /api/v1/quotes/supplier
func (h *Handler) ListAsSupplier(c *gin.Context) {
	req, actor, ok := h.bindList(c)
	if !ok {
		return
	}

	result, err := h.svc.ListAsSupplier(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get handles GET /api/v1/quotes/:quoteNumber
func (h *Handler) Get(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), actor, quoteNumber(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.SetETag(c, result.Version)
	httpkit.OK(c, result)
}

// Respond handles POST /api/v1/quotes/:quoteNumber/respond
func (h *Handler) Respond(c *gin.Context) {
	var req transport.RespondQuoteRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.Respond(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	writeQuote(c, result, err)
}

// CounterOffer handles POST /api/v1/quotes/:quoteNumber/counter-offer
func (h *Handler) CounterOffer(c *gin.Context) {
	var req transport.CounterOfferRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.CounterOffer(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	writeQuote(c, result, err)
}

// Approve handles POST /api/v1/quotes/:quoteNumber/approve
func (h *Handler) Approve(c *gin.Context) {
	var req transport.ApproveQuoteRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.Approve(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	writeQuote(c, result, err)
}

// Reject handles POST /api/v1/quotes/:quoteNumber/reject
func (h *Handler) Reject(c *gin.Context) {
	var req transport.RejectQuoteRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.Reject(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	writeQuote(c, result, err)
}

// Cancel handles POST /api/v1/quotes/:quoteNumber/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var req transport.CancelQuoteRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.Cancel(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	writeQuote(c, result, err)
}

// ExtendValidity handles POST /api/v1/quotes/:quoteNumber/extend
func (h *Handler) ExtendValidity(c *gin.Context) {
	var req transport.ExtendValidityRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.ExtendValidity(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	writeQuote(c, result, err)
}

// Convert handles POST /api/v1/quotes/:quoteNumber/convert
func (h *Handler) Convert(c *gin.Context) {
	var req transport.ConvertQuoteRequest
	if !h.bindOptional(c, &req) {
		return
	}
	actor, ifMatch, ok := actorAndVersion(c)
	if !ok {
		return
	}

	result, err := h.svc.Convert(c.Request.Context(), actor, quoteNumber(c), ifMatch, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.SetETag(c, result.Quote.Version)
	httpkit.OK(c, result)
}

// ListMessages handles GET /api/v1/quotes/:quoteNumber/messages
func (h *Handler) ListMessages(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.ListMessages(c.Request.Context(), actor, quoteNumber(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// AddMessage handles POST /api/v1/quotes/:quoteNumber/messages
func (h *Handler) AddMessage(c *gin.Context) {
	var req transport.AddMessageRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.AddMessage(c.Request.Context(), actor, quoteNumber(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// PresignAttachmentUpload handles POST /api/v1/quotes/:quoteNumber/attachments/presign
func (h *Handler) PresignAttachmentUpload(c *gin.Context) {
	var req transport.PresignAttachmentUploadRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.PresignAttachment(c.Request.Context(), actor, quoteNumber(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	return h.validate(c, req)
}

// bindOptional accepts an empty body for endpoints whose fields are all optional.
func (h *Handler) bindOptional(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return h.validate(c, req)
	}
	return h.bind(c, req)
}

func (h *Handler) validate(c *gin.Context, req any) bool {
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func (h *Handler) bindList(c *gin.Context) (transport.ListQuotesRequest, service.Actor, bool) {
	var req transport.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, service.Actor{}, false
	}
	if !h.validate(c, &req) {
		return req, service.Actor{}, false
	}
	actor, ok := mustGetActor(c)
	return req, actor, ok
}

func writeQuote(c *gin.Context, result *transport.QuoteResponse, err error) {
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.SetETag(c, result.Version)
	httpkit.OK(c, result)
}

func quoteNumber(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param(paramQuoteNumber)))
}

func mustGetActor(c *gin.Context) (service.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: identity.UserID(), Name: identity.DisplayName()}, true
}

func actorAndVersion(c *gin.Context) (service.Actor, int64, bool) {
	actor, ok := mustGetActor(c)
	if !ok {
		return service.Actor{}, 0, false
	}
	version, _, err := httpkit.IfMatchVersion(c)
	if httpkit.HandleError(c, err) {
		return service.Actor{}, 0, false
	}
	return actor, version, true
}
