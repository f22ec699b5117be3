package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/jmoiron/sqlx"
)

const reportColumns = `report_id, reporter_id, report_type, target_id, reason, status, admin_id, result,
	created_at, reviewed_at`

// CreateReport files a pending report
func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	report.Status = models.ReportStatusPending
	return s.db.GetContext(ctx, report, `
		INSERT INTO reports (reporter_id, report_type, target_id, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING report_id, created_at`,
		report.ReporterID, report.ReportType, report.TargetID, report.Reason, report.Status)
}

// GetReport retrieves a report by ID
func (s *Store) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	var report models.Report
	err := s.db.GetContext(ctx, &report, "SELECT "+reportColumns+" FROM reports WHERE report_id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListPendingReports returns reports awaiting review, oldest first
func (s *Store) ListPendingReports(ctx context.Context) ([]models.Report, error) {
	reports := []models.Report{}
	err := s.db.SelectContext(ctx, &reports, `
		SELECT `+qualify("r", reportColumns)+`, u.username AS reporter_username
		FROM reports r
		JOIN users u ON u.user_id = r.reporter_id
		WHERE r.status = $1
		ORDER BY r.created_at ASC`, models.ReportStatusPending)
	return reports, err
}

// ReviewReport closes a pending report. When approved, the reported product is
// removed or the reported user banned in the same transaction.
func (s *Store) ReviewReport(ctx context.Context, reportID, adminID int64, approved bool, result string) (*models.Report, error) {
	ctx, span := util.StartSpan(ctx, "Store.ReviewReport")
	defer span.End()

	status := models.ReportStatusRejected
	if approved {
		status = models.ReportStatusApproved
	}

	var report models.Report
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &report, `
			UPDATE reports SET status = $1, admin_id = $2, result = $3, reviewed_at = NOW()
			WHERE report_id = $4 AND status = $5
			RETURNING `+reportColumns,
			status, adminID, result, reportID, models.ReportStatusPending)
		if errors.Is(err, sql.ErrNoRows) {
			return reportMissOrReviewed(ctx, tx, reportID)
		}
		if err != nil {
			return fmt.Errorf("failed to update report: %w", err)
		}
		if !approved {
			return nil
		}

		switch report.ReportType {
		case models.ReportTypeProduct:
			_, err = tx.ExecContext(ctx,
				"UPDATE products SET status = $1, updated_at = NOW() WHERE product_id = $2",
				models.ProductStatusRemoved, report.TargetID)
		case models.ReportTypeUser:
			_, err = tx.ExecContext(ctx, "UPDATE users SET banned = TRUE WHERE user_id = $1", report.TargetID)
		}
		if err != nil {
			return fmt.Errorf("failed to act on report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func reportMissOrReviewed(ctx context.Context, tx *sqlx.Tx, reportID int64) error {
	var status models.ReportStatus
	err := tx.GetContext(ctx, &status, "SELECT status FROM reports WHERE report_id = $1", reportID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %d", models.ErrReportNotFound, reportID)
	case err != nil:
		return fmt.Errorf("failed to read report: %w", err)
	default:
		return fmt.Errorf("%w: %d is %s", models.ErrReportReviewed, reportID, status)
	}
}
