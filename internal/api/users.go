package api

import (
	"net/http"

	"anime-market/internal/service"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": h.t(c, "user.register_success", map[string]interface{}{"username": user.Username}),
		"data":    user,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.t(c, "user.login_success", map[string]interface{}{"username": resp.User.Username}),
		"data":    resp,
	})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, user)
}
