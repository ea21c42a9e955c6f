package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/pkg/respond"
	"github.com/agentwallet/agentwallet/internal/store"
)

// AuditHandler handles audit read, CSV export, and summary.
type AuditHandler struct {
	store    store.Store
	recorder *audit.Recorder
}

// NewAuditHandler constructs an AuditHandler over rec.
func NewAuditHandler(s store.Store, rec *audit.Recorder) *AuditHandler {
	return &AuditHandler{store: s, recorder: rec}
}

// ListByAgent handles GET /v1/agents/:id/audit.
func (h *AuditHandler) ListByAgent(c *gin.Context) {
	entries, err := h.store.ListAuditByAgent(c.Request.Context(), c.Param("id"), limitParam(c, 200))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"data": entries})
}

func limitParam(c *gin.Context, def int) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// Summary handles GET /v1/agents/:id/audit/summary.
func (h *AuditHandler) Summary(c *gin.Context) {
	since := time.Now().Add(-24 * time.Hour)
	if v := c.Query("since_hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			since = time.Now().Add(-time.Duration(n) * time.Hour)
		}
	}
	summary, err := h.recorder.Summarize(c.Request.Context(), c.Param("id"), since, limitParam(c, 1000))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, summary)
}

// Export handles GET /v1/agents/:id/audit/export, a CSV download.
func (h *AuditHandler) Export(c *gin.Context) {
	rows, err := h.recorder.ExportCSV(c.Request.Context(), c.Param("id"), limitParam(c, 10000))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=audit.csv")
	c.Status(http.StatusOK)
	w := c.Writer
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				_, _ = w.Write([]byte(","))
			}
			_, _ = w.Write([]byte(field))
		}
		_, _ = w.Write([]byte("\n"))
	}
}
