package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/core"
	"github.com/avoronkov/peerchat-server/internal/proto"
)

// PresenceHandlers provides point and streamed presence queries plus
// explicit logout.
type PresenceHandlers struct {
	tracker *core.Tracker
	watcher *core.Watcher
	log     *zerolog.Logger
}

// NewPresenceHandlers creates a new presence handlers instance.
func NewPresenceHandlers(tracker *core.Tracker, watcher *core.Watcher, logger *zerolog.Logger) *PresenceHandlers {
	return &PresenceHandlers{
		tracker: tracker,
		watcher: watcher,
		log:     logger,
	}
}

func presenceStatus(rec core.Record) proto.PresenceStatus {
	status := proto.PresenceStatus{Online: rec.Online}
	if rec.LastSeen != nil {
		seen := rec.LastSeen.UTC().Format(time.RFC3339)
		status.LastSeen = &seen
	}
	return status
}

// GetStatus answers a point-in-time presence query.
// GET /api/presence/:identity
func (h *PresenceHandlers) GetStatus(c *gin.Context) {
	identity := c.Param("identity")

	rec, ok := h.tracker.Query(identity)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}

	c.JSON(http.StatusOK, presenceStatus(rec))
}

// Watch streams presence snapshots for one identity as server-sent events.
// The subscription is cancelled when the requesting client hangs up; an
// identity that has never connected yields a single terminal error event.
// GET /api/presence/:identity/watch
func (h *PresenceHandlers) Watch(c *gin.Context) {
	identity := c.Param("identity")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	updates := h.watcher.Watch(c.Request.Context(), identity)

	c.Stream(func(w io.Writer) bool {
		update, ok := <-updates
		if !ok {
			return false
		}
		if !update.Known {
			c.SSEvent("error", proto.Error{Code: core.ErrCodeUnknownIdentity, Msg: "user not found"})
			return false
		}
		c.SSEvent("presence", presenceStatus(update.Record))
		return true
	})
}

// Logout forces the caller's presence record offline without requiring its
// channel to disconnect.
// POST /api/logout
func (h *PresenceHandlers) Logout(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	h.tracker.MarkOffline(identity)
	h.log.Info().Str("identity", identity).Msg("user logged out")

	c.JSON(http.StatusOK, gin.H{"detail": "logged out"})
}
