package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"go.uber.org/zap"
)

const maxReportReason = 500

// ReportStore persists user reports
type ReportStore interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// ReportService lets users flag listings and accounts for moderation
type ReportService struct {
	store  ReportStore
	logger *zap.Logger
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{
		store:  store,
		logger: util.Named("report"),
	}
}

// FileReportRequest describes a complaint
type FileReportRequest struct {
	ReporterID int64             `json:"-"`
	ReportType models.ReportType `json:"report_type"`
	TargetID   int64             `json:"target_id"`
	Reason     string            `json:"reason"`
}

// FileReport records a pending report after checking the target exists
func (s *ReportService) FileReport(ctx context.Context, req *FileReportRequest) (*models.Report, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > maxReportReason {
		return nil, fmt.Errorf("%w: reason must be 1-%d characters", models.ErrInvalidReport, maxReportReason)
	}

	switch req.ReportType {
	case models.ReportTypeProduct:
		if _, err := s.store.GetProductByID(ctx, req.TargetID); err != nil {
			return nil, err
		}
	case models.ReportTypeUser:
		if req.TargetID == req.ReporterID {
			return nil, fmt.Errorf("%w: users cannot report themselves", models.ErrInvalidReport)
		}
		if _, err := s.store.GetUserByID(ctx, req.TargetID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", models.ErrInvalidReport, req.ReportType)
	}

	report := &models.Report{
		ReporterID: req.ReporterID,
		ReportType: req.ReportType,
		TargetID:   req.TargetID,
		Reason:     reason,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to file report: %w", err)
	}

	s.logger.Info("Report filed",
		zap.Int64("report_id", report.ID),
		zap.Int64("reporter_id", report.ReporterID),
		zap.String("report_type", string(report.ReportType)),
		zap.Int64("target_id", report.TargetID))
	return report, nil
}
