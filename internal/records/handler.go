// Package records exposes the read-only table dumps the dashboard polls:
// pending registrants, verified attendees, per-LGA review queues and
// per-LGA counts.
package records

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/response"
)

// Store is the read-only slice of persistence the dumps need.
type Store interface {
	store.Registrants
	store.Reviews
	store.Verified
}

// Handler serves GET /records. Every reply is HTTP 200; outcomes ride in
// the body.
type Handler struct {
	store  Store
	lgas   []string
	logger *zap.Logger
}

// NewHandler wires the dump handler over the configured LGA set.
func NewHandler(st Store, lgas []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: st, lgas: lgas, logger: logger}
}

// GroupStats is the per-LGA slice of the stats dump.
type GroupStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Total    int `json:"total"`
}

// Dump routes GET /records by the type query parameter.
func (h *Handler) Dump(c *gin.Context) {
	switch c.Query("type") {
	case "pending":
		h.pending(c)
	case "verified":
		h.verified(c)
	case "group":
		h.group(c)
	case "stats":
		h.stats(c)
	default:
		response.Message(c, false, "Unknown type.")
	}
}

func (h *Handler) pending(c *gin.Context) {
	rows, err := h.store.Registrants(c.Request.Context())
	if err != nil {
		h.logger.Error("pending dump failed", zap.Error(err))
		response.Message(c, false, "Could not load records.")
		return
	}
	response.Plain(c, gin.H{"success": true, "count": len(rows), "records": rows})
}

func (h *Handler) verified(c *gin.Context) {
	rows, err := h.store.VerifiedAttendees(c.Request.Context())
	if err != nil {
		h.logger.Error("verified dump failed", zap.Error(err))
		response.Message(c, false, "Could not load records.")
		return
	}
	response.Plain(c, gin.H{"success": true, "count": len(rows), "records": rows})
}

func (h *Handler) group(c *gin.Context) {
	name := strings.TrimSpace(c.Query("group"))
	if name == "" {
		response.Message(c, false, "Missing group.")
		return
	}
	rows, err := h.store.ReviewEntriesByLGA(c.Request.Context(), name)
	if err != nil {
		h.logger.Error("group dump failed", zap.String("group", name), zap.Error(err))
		response.Message(c, false, "Could not load records.")
		return
	}
	response.Plain(c, gin.H{"success": true, "group": name, "count": len(rows), "records": rows})
}

// stats counts the review queue per LGA. An entry counts as approved once a
// reviewer marked it or a code went out; pending is the remainder.
func (h *Handler) stats(c *gin.Context) {
	entries, err := h.store.ReviewEntries(c.Request.Context())
	if err != nil {
		h.logger.Error("stats dump failed", zap.Error(err))
		response.Message(c, false, "Could not load records.")
		return
	}

	canonical := make(map[string]string, len(h.lgas))
	stats := make(map[string]GroupStats, len(h.lgas))
	for _, lga := range h.lgas {
		canonical[strings.ToLower(lga)] = lga
		stats[lga] = GroupStats{}
	}

	for _, e := range entries {
		name := strings.TrimSpace(e.LGA)
		if canon, ok := canonical[strings.ToLower(name)]; ok {
			name = canon
		}
		gs := stats[name]
		gs.Total++
		if e.Approved() || e.ApprovalMarked() {
			gs.Approved++
		}
		stats[name] = gs
	}

	for name, gs := range stats {
		gs.Pending = gs.Total - gs.Approved
		stats[name] = gs
	}

	response.Plain(c, gin.H{"success": true, "stats": stats})
}
