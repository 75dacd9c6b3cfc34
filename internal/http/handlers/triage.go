package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/incident_triage/backend/internal/models"
	"github.com/incident_triage/backend/internal/service"
)

// Index godoc
// @Summary Service index
// @Description Redirects to the frontend when one is mounted
// @Tags triage
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *Handler) Index(c *gin.Context) {
	if h.FrontendDir != "" {
		c.Redirect(http.StatusTemporaryRedirect, "/app/")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service": "Triage API",
		"docs":    "/swagger/index.html",
		"search":  "POST /search",
		"triage":  "POST /triage",
	})
}

// Search godoc
// @Summary Search logs
// @Description Exact-match lookup by order_no, merchant_id and request_id (AND)
// @Tags triage
// @Accept json
// @Produce json
// @Param request body models.TriageRequest true "Identifiers"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} map[string]any
// @Router /search [post]
func (h *Handler) Search(c *gin.Context) {
	req, ok := h.bindTriageRequest(c)
	if !ok {
		return
	}
	payloads, ok := h.search(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.SearchResponse{
		Query: echoQuery(req),
		Hits:  toLogHits(payloads),
		Total: len(payloads),
	})
}

// Triage godoc
// @Summary Triage an incident
// @Description Looks up related logs and asks the LLM for a diagnosis
// @Tags triage
// @Accept json
// @Produce json
// @Param request body models.TriageRequest true "Identifiers and optional free text"
// @Success 200 {object} models.TriageResponse
// @Failure 400 {object} map[string]any
// @Router /triage [post]
func (h *Handler) Triage(c *gin.Context) {
	req, ok := h.bindTriageRequest(c)
	if !ok {
		return
	}
	payloads, ok := h.search(c, req)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if h.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.LLMTimeout)
		defer cancel()
	}
	result, raw := h.Triager.Triage(ctx, payloads, req.LogSnippet, req.ErrorMessage)

	preview := payloads
	if len(preview) > previewSize {
		preview = preview[:previewSize]
	}
	c.JSON(http.StatusOK, models.TriageResponse{
		Query:       echoQuery(req),
		LogsFound:   len(payloads),
		LogsPreview: toLogHits(preview),
		Triage:      result,
		RawLLM:      raw,
	})
}

func (h *Handler) bindTriageRequest(c *gin.Context) (models.TriageRequest, bool) {
	var req models.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return req, false
	}
	req.OrderNo = strings.TrimSpace(req.OrderNo)
	req.MerchantID = strings.TrimSpace(req.MerchantID)
	req.RequestID = strings.TrimSpace(req.RequestID)
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", service.ErrInvalidRequest.Error(), err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) search(c *gin.Context, req models.TriageRequest) ([]map[string]any, bool) {
	payloads, err := h.Query.Search(c.Request.Context(), service.SearchParams{
		OrderNo:    req.OrderNo,
		MerchantID: req.MerchantID,
		RequestID:  req.RequestID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return nil, false
		}
		writeError(c, http.StatusInternalServerError, "SEARCH_ERROR", "Search failed", err.Error())
		return nil, false
	}
	return payloads, true
}

// echoQuery returns the request fields that were provided.
func echoQuery(req models.TriageRequest) map[string]string {
	q := map[string]string{}
	for k, v := range map[string]string{
		"order_no":      req.OrderNo,
		"merchant_id":   req.MerchantID,
		"request_id":    req.RequestID,
		"log_snippet":   req.LogSnippet,
		"error_message": req.ErrorMessage,
	} {
		if v != "" {
			q[k] = v
		}
	}
	return q
}
