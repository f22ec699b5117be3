package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is the listing state of a product
type ProductStatus string

// Product statuses
const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusRemoved   ProductStatus = "removed"
	ProductStatusSoldOut   ProductStatus = "sold_out"
)

// Product represents a listing in the catalog
type Product struct {
	ID          int64           `db:"product_id" json:"product_id"`
	SellerID    int64           `db:"seller_id" json:"seller_id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Status      ProductStatus   `db:"status" json:"status"`
	ViewCount     int64           `db:"view_count" json:"view_count"`
	FavoriteCount int64           `db:"favorite_count" json:"favorite_count"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// FavoriteProduct is a product in a user's favorites list
type FavoriteProduct struct {
	Product
	FavoritedAt time.Time `db:"favorited_at" json:"favorited_at"`
}

// ProductSort orders a catalog listing
type ProductSort string

// Catalog orderings. Anything else sorts newest first.
const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortPopular   ProductSort = "popular"
)

// ProductFilter narrows a catalog search. Zero values are ignored.
type ProductFilter struct {
	Keyword  string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     ProductSort
	Limit    int
	Offset   int
}

// Order represents a single-product purchase
type Order struct {
	ID                 int64           `db:"order_id" json:"order_id"`
	BuyerID            int64           `db:"buyer_id" json:"buyer_id"`
	SellerID           int64           `db:"seller_id" json:"seller_id"`
	ProductID          int64           `db:"product_id" json:"product_id"`
	Quantity           int             `db:"quantity" json:"quantity"`
	TotalPrice         decimal.Decimal `db:"total_price" json:"total_price"`
	Status             OrderStatus     `db:"status" json:"status"`
	ShippingAddress    string          `db:"shipping_address" json:"shipping_address"`
	PaymentMethod      *string         `db:"payment_method" json:"payment_method,omitempty"`
	TrackingNumber     *string         `db:"tracking_number" json:"tracking_number,omitempty"`
	CancelReason       *string         `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelRejectReason *string         `db:"cancel_reject_reason" json:"cancel_reject_reason,omitempty"`
	RefundReason       *string         `db:"refund_reason" json:"refund_reason,omitempty"`
	RefundRejectReason *string         `db:"refund_reject_reason" json:"refund_reject_reason,omitempty"`
	PaidAt             *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	ShippedAt          *time.Time      `db:"shipped_at" json:"shipped_at,omitempty"`
	CompletedAt        *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderTransition is a compare-and-set status change plus the fields it stamps.
// Nil pointers leave the stored column untouched.
type OrderTransition struct {
	OrderID            int64
	From               OrderStatus
	To                 OrderStatus
	PaymentMethod      *string
	TrackingNumber     *string
	CancelReason       *string
	CancelRejectReason *string
	RefundReason       *string
	RefundRejectReason *string
	PaidAt             *time.Time
	ShippedAt          *time.Time
	CompletedAt        *time.Time

	// RestockQuantity > 0 returns units to RestockProductID in the same transaction.
	RestockProductID int64
	RestockQuantity  int
}

// ApplyTo copies the transition onto an in-memory order.
func (t *OrderTransition) ApplyTo(o *Order) {
	o.Status = t.To
	if t.PaymentMethod != nil {
		o.PaymentMethod = t.PaymentMethod
	}
	if t.TrackingNumber != nil {
		o.TrackingNumber = t.TrackingNumber
	}
	if t.CancelReason != nil {
		o.CancelReason = t.CancelReason
	}
	if t.CancelRejectReason != nil {
		o.CancelRejectReason = t.CancelRejectReason
	}
	if t.RefundReason != nil {
		o.RefundReason = t.RefundReason
	}
	if t.RefundRejectReason != nil {
		o.RefundRejectReason = t.RefundRejectReason
	}
	if t.PaidAt != nil {
		o.PaidAt = t.PaidAt
	}
	if t.ShippedAt != nil {
		o.ShippedAt = t.ShippedAt
	}
	if t.CompletedAt != nil {
		o.CompletedAt = t.CompletedAt
	}
}

// User roles
const (
	RoleBuyer      = "buyer"
	RoleSeller     = "seller"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User represents a marketplace account
type User struct {
	ID           int64     `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Banned       bool      `db:"banned" json:"banned"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsAdmin reports whether the user may perform moderation actions
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// CanSell reports whether the user may list products
func (u *User) CanSell() bool {
	return u.Role == RoleSeller || u.IsAdmin()
}

// Message types
const (
	MessageTypeChat    = "chat"
	MessageTypeService = "service"
)

// Message is a direct message between two users
type Message struct {
	ID          int64     `db:"message_id" json:"message_id"`
	SenderID    int64     `db:"sender_id" json:"sender_id"`
	ReceiverID  int64     `db:"receiver_id" json:"receiver_id"`
	OrderID     *int64    `db:"order_id" json:"order_id,omitempty"`
	Content     string    `db:"content" json:"content"`
	MessageType string    `db:"message_type" json:"message_type"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AdminLog records a moderation action
type AdminLog struct {
	ID         int64     `db:"log_id" json:"log_id"`
	AdminID    int64     `db:"admin_id" json:"admin_id"`
	Action     string    `db:"action" json:"action"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	Details    string    `db:"details" json:"details"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ReportType names what a report is about
type ReportType string

// Report targets
const (
	ReportTypeProduct ReportType = "product"
	ReportTypeUser    ReportType = "user"
)

// ReportStatus is the review state of a report
type ReportStatus string

// Report statuses
const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusApproved ReportStatus = "approved"
	ReportStatusRejected ReportStatus = "rejected"
)

// Report is a user complaint about a listing or another user.
// Approving it removes the product or bans the user.
type Report struct {
	ID               int64        `db:"report_id" json:"report_id"`
	ReporterID       int64        `db:"reporter_id" json:"reporter_id"`
	ReporterUsername string       `db:"reporter_username" json:"reporter_username,omitempty"`
	ReportType       ReportType   `db:"report_type" json:"report_type"`
	TargetID         int64        `db:"target_id" json:"target_id"`
	Reason           string       `db:"reason" json:"reason"`
	Status           ReportStatus `db:"status" json:"status"`
	AdminID          *int64       `db:"admin_id" json:"admin_id,omitempty"`
	Result           *string      `db:"result" json:"result,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	ReviewedAt       *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// Statistics is the admin dashboard summary
type Statistics struct {
	TotalUsers        int64                 `json:"total_users"`
	BannedUsers       int64                 `json:"banned_users"`
	TotalProducts     int64                 `json:"total_products"`
	AvailableProducts int64                 `json:"available_products"`
	TotalOrders       int64                 `json:"total_orders"`
	PendingReports    int64                 `json:"pending_reports"`
	OrdersByStatus    map[OrderStatus]int64 `json:"orders_by_status"`
	CompletedRevenue  decimal.Decimal       `json:"completed_revenue"`
}
