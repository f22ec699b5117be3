package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"anime-market/internal/models"
	"anime-market/internal/service"

	"github.com/gin-gonic/gin"
)

// orderActionRequest is the optional body of a lifecycle call
type orderActionRequest struct {
	PaymentMethod  string `json:"payment_method"`
	TrackingNumber string `json:"tracking_number"`
	Reason         string `json:"reason"`
}

// orderFailed answers every business rejection of an order operation the
// same way. Callers learn that the operation did not apply, not why.
func (h *Handler) orderFailed(c *gin.Context, err error) {
	if service.IsRejection(err) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": h.t(c, "order.operation_failed", nil),
		})
		return
	}
	h.internalError(c, err)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	req.BuyerID = callerID(c)
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.orderFailed(c, err)
		return
	}

	h.ok(c, http.StatusCreated, resp)
}

// getOrder returns an order to its buyer or seller
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.fail(c, err)
		return
	}

	caller := callerID(c)
	if order.BuyerID != caller && order.SellerID != caller {
		h.reject(c, http.StatusNotFound, "common.not_found")
		return
	}

	h.ok(c, http.StatusOK, order)
}

// listOrders lists the caller's orders as buyer (default) or seller
func (h *Handler) listOrders(c *gin.Context) {
	var (
		orders []models.Order
		err    error
	)
	switch c.DefaultQuery("role", "buyer") {
	case "buyer":
		orders, err = h.orders.ListOrdersByBuyer(c.Request.Context(), callerID(c))
	case "seller":
		orders, err = h.orders.ListOrdersBySeller(c.Request.Context(), callerID(c))
	default:
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.ok(c, http.StatusOK, orders)
}

type orderAction func(ctx context.Context, orderID, callerID int64, body orderActionRequest) error

// lifecycle wraps one engine operation as a POST handler
func (h *Handler) lifecycle(action orderAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := pathID(c)
		if !ok {
			h.reject(c, http.StatusBadRequest, "common.bad_request")
			return
		}

		var body orderActionRequest
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			h.reject(c, http.StatusBadRequest, "common.bad_request")
			return
		}

		if err := action(c.Request.Context(), orderID, callerID(c), body); err != nil {
			h.orderFailed(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (h *Handler) payOrder(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, _ int64, b orderActionRequest) error {
		return h.orders.PayOrder(ctx, orderID, b.PaymentMethod)
	})(c)
}

func (h *Handler) shipOrder(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, b orderActionRequest) error {
		return h.orders.ShipOrder(ctx, orderID, caller, b.TrackingNumber)
	})(c)
}

func (h *Handler) confirmReceipt(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, _ orderActionRequest) error {
		return h.orders.ConfirmReceipt(ctx, orderID, caller)
	})(c)
}

func (h *Handler) requestCancel(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, b orderActionRequest) error {
		return h.orders.RequestCancel(ctx, orderID, caller, b.Reason)
	})(c)
}

func (h *Handler) approveCancel(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, _ orderActionRequest) error {
		return h.orders.ApproveCancel(ctx, orderID, caller)
	})(c)
}

func (h *Handler) rejectCancel(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, b orderActionRequest) error {
		return h.orders.RejectCancel(ctx, orderID, caller, b.Reason)
	})(c)
}

func (h *Handler) requestRefund(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, b orderActionRequest) error {
		return h.orders.RequestRefund(ctx, orderID, caller, b.Reason)
	})(c)
}

func (h *Handler) approveRefund(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, _ orderActionRequest) error {
		return h.orders.ApproveRefund(ctx, orderID, caller)
	})(c)
}

func (h *Handler) rejectRefund(c *gin.Context) {
	h.lifecycle(func(ctx context.Context, orderID, caller int64, b orderActionRequest) error {
		return h.orders.RejectRefund(ctx, orderID, caller, b.Reason)
	})(c)
}
