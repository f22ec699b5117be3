package api

import (
	"net/http"

	"anime-market/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) fileReport(c *gin.Context) {
	var req service.FileReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	req.ReporterID = callerID(c)

	report, err := h.reports.FileReport(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    report,
		"message": h.t(c, "report.filed", nil),
	})
}
