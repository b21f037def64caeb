package handlers

import (
	"context"
	"errors"
	"net/http"

	"querydesk/chat"
	"querydesk/models"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Query *string `json:"query,omitempty"`
}

// InputHandler updates the caller's pending query text
// @Summary      Update query input
// @Description  Replace the text of the query box without submitting it
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header    string               false  "User ID (defaults to admin)"
// @Param        request    body      models.QueryRequest  true   "Query text"
// @Success      200        {object}  models.StateResponse
// @Failure      400        {object}  map[string]string    "Invalid request"
// @Router       /api/query/input [put]
func (h *Handlers) InputHandler(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctrl, _, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.OnInputChange(req.Query)
	c.JSON(http.StatusOK, stateResponse(ctrl.Snapshot()))
}

// SubmitHandler submits the caller's current query
// @Summary      Submit query
// @Description  Submit the pending query (or the one in the body) and append the formatted answer to the chat history
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header    string                 false  "User ID (defaults to admin)"
// @Param        request    body      models.QueryRequest    false  "Optional query text; replaces the pending input"
// @Success      200        {object}  models.SubmitResponse
// @Failure      400        {object}  map[string]interface{}  "Empty query"
// @Failure      409        {object}  map[string]interface{}  "A query is already being processed"
// @Failure      502        {object}  map[string]interface{}  "Query service failed"
// @Router       /api/query/submit [post]
func (h *Handlers) SubmitHandler(c *gin.Context) {
	var req submitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	ctrl, id, ok := h.session(c)
	if !ok {
		return
	}
	if req.Query != nil {
		ctrl.OnInputChange(*req.Query)
	}

	// A submitted query runs to completion even if the client goes away.
	entries, err := ctrl.OnSubmit(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, chat.ErrBusy):
			status = http.StatusConflict
		case chat.IsValidation(err):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":  errorMessage(err),
			"state":  ctrl.State(),
			"toasts": h.drainToasts(id),
		})
		return
	}

	c.JSON(http.StatusOK, models.SubmitResponse{
		Entries: entries,
		State:   ctrl.State(),
		Toasts:  h.drainToasts(id),
	})
}

// ProcessHandler runs a query through the backend query service without
// touching any chat session. It backs remote controllers.
// @Summary      Process query
// @Description  Run a query through the query service and return the raw result (records or text)
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      models.QueryRequest  true  "Query text"
// @Success      200      {object}  models.RawResult
// @Failure      400      {object}  map[string]string    "Invalid request"
// @Failure      422      {object}  map[string]string    "Query rejected with a user-facing message"
// @Failure      500      {object}  map[string]string    "Query failed"
// @Router       /api/query/process [post]
func (h *Handlers) ProcessHandler(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	raw, err := h.service.ProcessQuery(c.Request.Context(), req.Query)
	if err != nil {
		var um chat.UserMessager
		if errors.As(err, &um) && um.UserMessage() != "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": um.UserMessage(), "detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": chat.GenericFailureMessage, "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, raw)
}

func errorMessage(err error) string {
	var um chat.UserMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
