package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" binding:"required"`
	Content    string `json:"content"`
}

func (h *Handler) inbox(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	msgs, err := h.messages.Inbox(c.Request.Context(), callerID(c), limit)
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, msgs)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), callerID(c), req.ReceiverID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": h.t(c, "message.sent", nil),
		"data":    msg,
	})
}

func (h *Handler) markRead(c *gin.Context) {
	n, err := h.messages.MarkRead(c.Request.Context(), callerID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"marked": n})
}
