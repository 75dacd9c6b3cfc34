package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/incident_triage/backend/internal/ingest"
	"github.com/incident_triage/backend/internal/models"
	"github.com/incident_triage/backend/internal/service"
	"github.com/incident_triage/backend/internal/utils"
)

const (
	maxHitText    = 500
	maxHitPayload = 2000
	previewSize   = 10
	maxBodyBytes  = 10 << 20
)

// Pinger reports whether the metadata store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Store      Pinger
	Pipeline   *ingest.Pipeline
	Query      *service.QueryService
	Triager    *service.TriageService
	Validator  *validator.Validate
	Logger     zerolog.Logger
	LLMTimeout time.Duration
	// FrontendDir is the directory served at /app, empty when there is none.
	FrontendDir string
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Checks that the metadata store is reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]any
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Store unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func toLogHit(p map[string]any) models.LogHit {
	hit := models.LogHit{
		OrderNo:    utils.String(p, "order_no"),
		MerchantID: utils.String(p, "merchant_id"),
		Module:     utils.String(p, "module"),
		Operation:  utils.String(p, "operation"),
		RespCode:   utils.String(p, "resp_code"),
		Status:     utils.String(p, "status"),
		Text:       utils.Truncate(utils.String(p, "text"), maxHitText),
		Payload:    utils.Truncate(utils.String(p, "payload"), maxHitPayload),
	}
	if ts, ok := utils.Int64(p, "timestamp"); ok {
		hit.Timestamp = &ts
	}
	return hit
}

func toLogHits(payloads []map[string]any) []models.LogHit {
	hits := make([]models.LogHit, 0, len(payloads))
	for _, p := range payloads {
		hits = append(hits, toLogHit(p))
	}
	return hits
}
