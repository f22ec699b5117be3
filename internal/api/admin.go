package api

import (
	"errors"
	"net/http"

	"anime-market/internal/models"

	"github.com/gin-gonic/gin"
)

type adminActionRequest struct {
	Reason string `json:"reason"`
}

type reviewReportRequest struct {
	Approved bool   `json:"approved"`
	Result   string `json:"result"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// adminFail answers permission failures with the admin message
func (h *Handler) adminFail(c *gin.Context, err error) {
	var permErr *models.PermissionError
	if errors.As(err, &permErr) {
		h.reject(c, http.StatusForbidden, "admin.permission_denied")
		return
	}
	h.fail(c, err)
}

func (h *Handler) adminRemoveProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	var req adminActionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.admin.RemoveProduct(c.Request.Context(), callerID(c), id, req.Reason); err != nil {
		h.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.t(c, "admin.product_removed", map[string]interface{}{"product_id": id}),
	})
}

func (h *Handler) adminBanUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	var req adminActionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.admin.BanUser(c.Request.Context(), callerID(c), id, req.Reason); err != nil {
		h.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.t(c, "admin.user_banned", map[string]interface{}{"user_id": id}),
	})
}

func (h *Handler) adminUnbanUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	if err := h.admin.UnbanUser(c.Request.Context(), callerID(c), id); err != nil {
		h.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.t(c, "admin.user_unbanned", map[string]interface{}{"user_id": id}),
	})
}

func (h *Handler) adminSetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	if err := h.admin.SetUserRole(c.Request.Context(), callerID(c), id, req.Role); err != nil {
		h.adminFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminStats(c *gin.Context) {
	stats, err := h.admin.Statistics(c.Request.Context(), callerID(c))
	if err != nil {
		h.adminFail(c, err)
		return
	}
	h.ok(c, http.StatusOK, stats)
}

// adminListUsers pages accounts with ?limit= and ?offset=
func (h *Handler) adminListUsers(c *gin.Context) {
	limit, offset, ok := h.page(c)
	if !ok {
		return
	}
	users, err := h.admin.ListUsers(c.Request.Context(), callerID(c), limit, offset)
	if err != nil {
		h.adminFail(c, err)
		return
	}
	h.ok(c, http.StatusOK, users)
}

func (h *Handler) adminListProducts(c *gin.Context) {
	limit, offset, ok := h.page(c)
	if !ok {
		return
	}
	products, err := h.admin.ListProducts(c.Request.Context(), callerID(c), limit, offset)
	if err != nil {
		h.adminFail(c, err)
		return
	}
	h.ok(c, http.StatusOK, products)
}

func (h *Handler) adminPendingReports(c *gin.Context) {
	reports, err := h.admin.PendingReports(c.Request.Context(), callerID(c))
	if err != nil {
		h.adminFail(c, err)
		return
	}
	h.ok(c, http.StatusOK, reports)
}

func (h *Handler) adminReviewReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	var req reviewReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	report, err := h.admin.ReviewReport(c.Request.Context(), callerID(c), id, req.Approved, req.Result)
	if err != nil {
		h.adminFail(c, err)
		return
	}
	key := "report.rejected"
	if report.Status == models.ReportStatusApproved {
		key = "report.approved"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
		"message": h.t(c, key, map[string]interface{}{"report_id": report.ID}),
	})
}

func (h *Handler) page(c *gin.Context) (int, int, bool) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return 0, 0, false
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return 0, 0, false
	}
	return limit, offset, true
}
