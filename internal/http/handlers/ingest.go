package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/incident_triage/backend/internal/ingest"
	"github.com/incident_triage/backend/internal/models"
	"github.com/incident_triage/backend/internal/normalizer"
)

// Ingest godoc
// @Summary Ingest one log
// @Description Normalizes a raw log event and upserts it into the store
// @Tags ingest
// @Accept json
// @Produce json
// @Param log body object true "Raw log event"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /ingest [post]
func (h *Handler) Ingest(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	raw, err := normalizer.ParseEvent(body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid log", err.Error())
		return
	}

	rec, err := h.Pipeline.IngestOne(c.Request.Context(), raw)
	if err != nil {
		var verr *normalizer.ValidationError
		if errors.As(err, &verr) {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid log", err.Error())
			return
		}
		h.Logger.Error().Err(err).Msg("ingest failed")
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to store log", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.IngestResponse{ID: rec.ID, OrderNo: rec.OrderNo, MerchantID: rec.MerchantID})
}

// IngestBatch godoc
// @Summary Ingest a batch of logs
// @Description Invalid items are skipped; the rest are upserted in one write
// @Tags ingest
// @Accept json
// @Produce json
// @Param logs body []object true "Raw log events"
// @Success 200 {object} models.IngestBatchResponse
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /ingest/batch [post]
func (h *Handler) IngestBatch(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	items, err := normalizer.ParseBatch(body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Body must be a JSON array of logs", err.Error())
		return
	}

	records, err := h.Pipeline.IngestBatch(c.Request.Context(), items)
	if err != nil {
		if errors.Is(err, ingest.ErrNoValidRecords) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No valid logs in batch", nil)
			return
		}
		h.Logger.Error().Err(err).Int("items", len(items)).Msg("batch ingest failed")
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to store logs", err.Error())
		return
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	c.JSON(http.StatusOK, models.IngestBatchResponse{Ingested: len(records), IDs: ids})
}

func (h *Handler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read body", err.Error())
		return nil, false
	}
	return body, true
}
