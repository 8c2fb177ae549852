package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stackwatch/internal/normalize"
	"stackwatch/internal/stats"
	"stackwatch/internal/storage"
	"stackwatch/internal/store"
)

// defaultEventsLimit applies when /events is queried without a limit.
const defaultEventsLimit = 50

// Handler serves the webhook ingest and dashboard query endpoints.
type Handler struct {
	contract string
	store    *store.Store
	archive  storage.Archive
	logger   *zap.Logger
	started  time.Time
}

// NewHandler builds a Handler. archive may be nil to disable the
// unmatched-payload archive.
func NewHandler(contract string, st *store.Store, archive storage.Archive, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		contract: contract,
		store:    st,
		archive:  archive,
		logger:   logger,
		started:  time.Now().UTC(),
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Contract:      h.contract,
		EventsCount:   h.store.Len(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// handleWebhook ingests one notification payload. Extraction yielding
// zero records is not an error at this layer, and normalization faults
// surface as a degraded record rather than a delivery failure, so the
// provider only sees 5xx for faults in the HTTP layer itself.
func (h *Handler) handleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("read webhook body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Success: false, Error: "read request body"})
		return
	}

	records := normalize.Normalize(payload, h.contract)
	h.store.Append(records)

	if len(records) == 0 {
		h.logger.Debug("payload matched no known shape", zap.Int("payload_bytes", len(payload)))
		h.archiveUnmatched(payload)
	}

	c.JSON(http.StatusOK, webhookResponse{Success: true, EventsProcessed: len(records)})
}

func (h *Handler) handleEvents(c *gin.Context) {
	limit := defaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Success: false, Error: "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	if limit > h.store.Capacity() {
		limit = h.store.Capacity()
	}

	records := h.store.Recent(limit)
	events := make([]eventView, 0, len(records))
	for _, rec := range records {
		events = append(events, newEventView(rec))
	}

	c.JSON(http.StatusOK, eventsResponse{
		Success:     true,
		Contract:    h.contract,
		TotalEvents: h.store.Len(),
		Events:      events,
	})
}

func (h *Handler) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{
		Success:  true,
		Contract: h.contract,
		Stats:    stats.Compute(h.store.All()),
	})
}

func (h *Handler) archiveUnmatched(payload []byte) {
	if h.archive == nil {
		return
	}
	if err := h.archive.PutPayload(payload, time.Now().UTC()); err != nil {
		h.logger.Warn("archive unmatched payload", zap.Error(err))
	}
}
