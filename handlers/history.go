package handlers

import (
	"io"
	"log"
	"net/http"

	"querydesk/chat"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StateHandler returns the caller's submission state and history
// @Summary      Get chat state
// @Tags         Chat
// @Produce      json
// @Param        X-User-ID  header    string  false  "User ID (defaults to admin)"
// @Success      200        {object}  models.StateResponse
// @Router       /api/chat/state [get]
func (h *Handlers) StateHandler(c *gin.Context) {
	ctrl, _, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateResponse(ctrl.Snapshot()))
}

// HistoryHandler returns the caller's chat history
// @Summary      Get chat history
// @Tags         Chat
// @Produce      json
// @Param        X-User-ID  header    string  false  "User ID (defaults to admin)"
// @Success      200        {object}  map[string][]models.ChatEntry
// @Router       /api/chat/history [get]
func (h *Handlers) HistoryHandler(c *gin.Context) {
	ctrl, _, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": ctrl.History().Entries()})
}

// ClearHistoryHandler empties the caller's chat history
// @Summary      Clear chat history
// @Description  Remove every entry from the chat history, in memory and in the database
// @Tags         Chat
// @Produce      json
// @Param        X-User-ID  header    string  false  "User ID (defaults to admin)"
// @Success      200        {object}  map[string]interface{}
// @Router       /api/chat/history [delete]
func (h *Handlers) ClearHistoryHandler(c *gin.Context) {
	ctrl, id, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.OnClearHistory()
	c.JSON(http.StatusOK, gin.H{
		"state":  ctrl.State(),
		"toasts": h.drainToasts(id),
	})
}

// EventsHandler streams the caller's state as server-sent events
// @Summary      Stream chat state
// @Description  Server-sent events; one "snapshot" event now and one after every state change
// @Tags         Chat
// @Produce      text/event-stream
// @Param        X-User-ID  header  string  false  "User ID (defaults to admin)"
// @Router       /api/chat/events [get]
func (h *Handlers) EventsHandler(c *gin.Context) {
	ctrl, id, ok := h.session(c)
	if !ok {
		return
	}

	events := h.events.Subscribe()
	defer h.events.Unsubscribe(events)

	streamID := uuid.New().String()
	c.Header("X-Stream-ID", streamID)
	log.Printf("[SSE] stream %s opened for %s", streamID, id)
	defer log.Printf("[SSE] stream %s closed", streamID)

	last := ctrl.Snapshot()
	c.SSEvent("snapshot", stateResponse(last))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, open := <-events:
			if !open {
				return false
			}
			// Pings share one buffered slot across users, so one for another
			// user may have displaced ours: re-read and send on any change.
			if snap := ctrl.Snapshot(); changed(last, snap) {
				last = snap
				c.SSEvent("snapshot", stateResponse(snap))
			}
			return true
		}
	})
}

func changed(a, b chat.Snapshot) bool {
	return a.Version != b.Version
}
