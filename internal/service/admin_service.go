package service

import (
	"context"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"go.uber.org/zap"
)

// AdminStore is the persistence moderation needs
type AdminStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	RemoveProduct(ctx context.Context, productID int64) error
	SetUserBanned(ctx context.Context, userID int64, banned bool) error
	SetUserRole(ctx context.Context, userID int64, role string) error
	CreateAdminLog(ctx context.Context, entry *models.AdminLog) error
	GetStatistics(ctx context.Context) (*models.Statistics, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	ListAllProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	ListPendingReports(ctx context.Context) ([]models.Report, error)
	ReviewReport(ctx context.Context, reportID, adminID int64, approved bool, result string) (*models.Report, error)
}

// AdminService handles moderation. Every action is checked and logged.
type AdminService struct {
	store  AdminStore
	logger *zap.Logger
}

func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{
		store:  store,
		logger: util.Named("admin"),
	}
}

// VerifyAdmin returns the user if it holds an admin role
func (s *AdminService) VerifyAdmin(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, &models.PermissionError{UserID: user.ID, Role: user.Role, Action: "perform admin actions"}
	}
	return user, nil
}

// RemoveProduct takes a listing down
func (s *AdminService) RemoveProduct(ctx context.Context, adminID, productID int64, reason string) error {
	if _, err := s.VerifyAdmin(ctx, adminID); err != nil {
		return err
	}
	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return err
	}
	if err := s.store.RemoveProduct(ctx, productID); err != nil {
		return err
	}
	s.log(ctx, adminID, "remove_product", "product", productID, reason)
	return nil
}

// BanUser blocks a user from logging in. Only a superadmin may ban another admin.
func (s *AdminService) BanUser(ctx context.Context, adminID, userID int64, reason string) error {
	admin, err := s.VerifyAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	target, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if target.IsAdmin() && admin.Role != models.RoleSuperAdmin {
		return &models.PermissionError{UserID: admin.ID, Role: admin.Role, Action: "ban another administrator"}
	}
	if err := s.store.SetUserBanned(ctx, userID, true); err != nil {
		return err
	}
	s.log(ctx, adminID, "ban_user", "user", userID, reason)
	return nil
}

// UnbanUser lifts a ban
func (s *AdminService) UnbanUser(ctx context.Context, adminID, userID int64) error {
	if _, err := s.VerifyAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.store.SetUserBanned(ctx, userID, false); err != nil {
		return err
	}
	s.log(ctx, adminID, "unban_user", "user", userID, "")
	return nil
}

// SetUserRole changes a role. Superadmin only.
func (s *AdminService) SetUserRole(ctx context.Context, adminID, userID int64, role string) error {
	admin, err := s.VerifyAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.Role != models.RoleSuperAdmin {
		return &models.PermissionError{UserID: admin.ID, Role: admin.Role, Action: "set user roles"}
	}
	switch role {
	case models.RoleBuyer, models.RoleSeller, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return fmt.Errorf("%w: %q", models.ErrInvalidRole, role)
	}
	if err := s.store.SetUserRole(ctx, userID, role); err != nil {
		return err
	}
	s.log(ctx, adminID, "set_user_role", "user", userID, role)
	return nil
}

// Statistics returns the dashboard counters
func (s *AdminService) Statistics(ctx context.Context, adminID int64) (*models.Statistics, error) {
	if _, err := s.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.GetStatistics(ctx)
}

// ListUsers pages through every account
func (s *AdminService) ListUsers(ctx context.Context, adminID int64, limit, offset int) ([]models.User, error) {
	if _, err := s.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, limit, offset)
}

// ListProducts pages through every listing, removed ones included
func (s *AdminService) ListProducts(ctx context.Context, adminID int64, limit, offset int) ([]models.Product, error) {
	if _, err := s.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.ListAllProducts(ctx, limit, offset)
}

// PendingReports lists reports awaiting review, oldest first
func (s *AdminService) PendingReports(ctx context.Context, adminID int64) ([]models.Report, error) {
	if _, err := s.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.ListPendingReports(ctx)
}

// ReviewReport closes a pending report. An approved product report removes the
// listing and an approved user report bans the account, under the same rules as BanUser.
func (s *AdminService) ReviewReport(ctx context.Context, adminID, reportID int64, approved bool, result string) (*models.Report, error) {
	admin, err := s.VerifyAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if approved && report.ReportType == models.ReportTypeUser {
		target, err := s.store.GetUserByID(ctx, report.TargetID)
		if err != nil {
			return nil, err
		}
		if target.IsAdmin() && admin.Role != models.RoleSuperAdmin {
			return nil, &models.PermissionError{UserID: admin.ID, Role: admin.Role, Action: "ban another administrator"}
		}
	}

	reviewed, err := s.store.ReviewReport(ctx, reportID, adminID, approved, result)
	if err != nil {
		return nil, err
	}
	s.log(ctx, adminID, "review_report", "report", reportID,
		fmt.Sprintf("%s: %s", reviewed.Status, result))
	return reviewed, nil
}

// log writes the audit entry. A failure here does not undo the action.
func (s *AdminService) log(ctx context.Context, adminID int64, action, targetType string, targetID int64, details string) {
	entry := &models.AdminLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := s.store.CreateAdminLog(ctx, entry); err != nil {
		s.logger.Error("Failed to write admin log", zap.String("action", action), zap.Error(err))
		return
	}
	s.logger.Info("Admin action",
		zap.Int64("admin_id", adminID),
		zap.String("action", action),
		zap.String("target_type", targetType),
		zap.Int64("target_id", targetID))
}
