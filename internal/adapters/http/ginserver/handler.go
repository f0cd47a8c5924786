// Package ginserver exposes the snapshot engine over the management API.
package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/services/monitor"
)

// Handler exposes HTTP endpoints for the health snapshot and its history.
type Handler struct {
	svc *monitor.Service
}

// NewHandler wires the monitor service into a gin-compatible HTTP handler.
func NewHandler(svc *monitor.Service) *Handler {
	return &Handler{svc: svc}
}

// Snapshot handles `GET /api/v1/snapshot`: one full refresh cycle, returned
// as JSON.
func (h *Handler) Snapshot(c *gin.Context) {
	entry, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Latest handles `GET /api/v1/snapshot/latest` from the history store, no
// refresh involved.
func (h *Handler) Latest(c *gin.Context) {
	entry, err := h.svc.Latest(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// History handles `GET /api/v1/history?since=<RFC3339>&limit=<n>`.
func (h *Handler) History(c *gin.Context) {
	var since time.Time
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since, want RFC3339"})
			return
		}
		since = t
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.svc.History(c.Request.Context(), since, limit)
	if err != nil {
		httpError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Ping handles `GET /ping`, reporting history backend health.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, "pong")
}

func httpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
