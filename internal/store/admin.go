package store

import (
	"context"
	"fmt"

	"anime-market/internal/models"

	"github.com/shopspring/decimal"
)

// CreateAdminLog records a moderation action
func (s *Store) CreateAdminLog(ctx context.Context, entry *models.AdminLog) error {
	query := `
		INSERT INTO admin_logs (admin_id, action, target_type, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING log_id, created_at`

	return s.db.GetContext(ctx, entry, query,
		entry.AdminID, entry.Action, entry.TargetType, entry.TargetID, entry.Details)
}

// GetStatistics aggregates counts for the admin dashboard
func (s *Store) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	var counts struct {
		TotalUsers        int64           `db:"total_users"`
		BannedUsers       int64           `db:"banned_users"`
		TotalProducts     int64           `db:"total_products"`
		AvailableProducts int64           `db:"available_products"`
		TotalOrders       int64           `db:"total_orders"`
		PendingReports    int64           `db:"pending_reports"`
		CompletedRevenue  decimal.Decimal `db:"completed_revenue"`
	}
	err := s.db.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE banned) AS banned_users,
			(SELECT COUNT(*) FROM products) AS total_products,
			(SELECT COUNT(*) FROM products WHERE status = $1) AS available_products,
			(SELECT COUNT(*) FROM orders) AS total_orders,
			(SELECT COUNT(*) FROM reports WHERE status = $3) AS pending_reports,
			(SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE status = $2) AS completed_revenue`,
		models.ProductStatusAvailable, models.OrderStatusCompleted, models.ReportStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count totals: %w", err)
	}

	var rows []struct {
		Status models.OrderStatus `db:"status"`
		Count  int64              `db:"count"`
	}
	err = s.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	stats := &models.Statistics{
		TotalUsers:        counts.TotalUsers,
		BannedUsers:       counts.BannedUsers,
		TotalProducts:     counts.TotalProducts,
		AvailableProducts: counts.AvailableProducts,
		TotalOrders:       counts.TotalOrders,
		PendingReports:    counts.PendingReports,
		CompletedRevenue:  counts.CompletedRevenue,
		OrdersByStatus:    make(map[models.OrderStatus]int64, len(rows)),
	}
	for _, r := range rows {
		stats.OrdersByStatus[r.Status] = r.Count
	}
	return stats, nil
}

// ListUsers pages through every account, newest first
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = pageBounds(limit, offset, 50, 200)
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return users, err
}

// ListAllProducts pages through every listing, removed ones included, newest first
func (s *Store) ListAllProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	limit, offset = pageBounds(limit, offset, 50, 200)
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return products, err
}
