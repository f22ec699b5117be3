package service

import (
	"context"
	"testing"

	"anime-market/internal/models"
	"anime-market/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID      int64 = 90
	superAdminID int64 = 91
	otherAdminID int64 = 92
)

func newTestAdminService() (*AdminService, *memstore.Store) {
	st := memstore.New()
	st.AddUser(models.User{ID: buyerID, Username: "buyer", Role: models.RoleBuyer})
	st.AddUser(models.User{ID: sellerID, Username: "seller", Role: models.RoleSeller})
	st.AddUser(models.User{ID: adminID, Username: "admin", Role: models.RoleAdmin})
	st.AddUser(models.User{ID: superAdminID, Username: "root", Role: models.RoleSuperAdmin})
	st.AddUser(models.User{ID: otherAdminID, Username: "admin2", Role: models.RoleAdmin})
	st.AddProduct(models.Product{ID: productID, SellerID: sellerID, Title: "Figure", Price: decimal.NewFromInt(100), Stock: 10})
	return NewAdminService(st), st
}

func TestVerifyAdmin(t *testing.T) {
	svc, _ := newTestAdminService()
	ctx := context.Background()

	_, err := svc.VerifyAdmin(ctx, adminID)
	assert.NoError(t, err)

	var permErr *models.PermissionError
	_, err = svc.VerifyAdmin(ctx, buyerID)
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, buyerID, permErr.UserID)

	_, err = svc.VerifyAdmin(ctx, 12345)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestAdminRemoveProduct(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()

	var permErr *models.PermissionError
	assert.ErrorAs(t, svc.RemoveProduct(ctx, sellerID, productID, "spam"), &permErr)

	require.NoError(t, svc.RemoveProduct(ctx, adminID, productID, "counterfeit"))
	assert.Equal(t, models.ProductStatusRemoved, st.Product(productID).Status)
	logs := st.AdminLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "remove_product", logs[0].Action)
	assert.Equal(t, "counterfeit", logs[0].Details)

	assert.ErrorIs(t, svc.RemoveProduct(ctx, adminID, 777, "x"), models.ErrProductNotFound)
}

func TestBanUser(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()

	require.NoError(t, svc.BanUser(ctx, adminID, buyerID, "fraud"))
	assert.True(t, st.User(buyerID).Banned)

	var permErr *models.PermissionError
	assert.ErrorAs(t, svc.BanUser(ctx, adminID, otherAdminID, "rogue"), &permErr)
	assert.False(t, st.User(otherAdminID).Banned)

	require.NoError(t, svc.BanUser(ctx, superAdminID, otherAdminID, "rogue"))
	assert.True(t, st.User(otherAdminID).Banned)

	require.NoError(t, svc.UnbanUser(ctx, adminID, buyerID))
	assert.False(t, st.User(buyerID).Banned)
	assert.Len(t, st.AdminLogs(), 3)
}

func TestSetUserRole(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()

	var permErr *models.PermissionError
	assert.ErrorAs(t, svc.SetUserRole(ctx, adminID, buyerID, models.RoleSeller), &permErr)
	assert.ErrorIs(t, svc.SetUserRole(ctx, superAdminID, buyerID, "emperor"), models.ErrInvalidRole)

	require.NoError(t, svc.SetUserRole(ctx, superAdminID, buyerID, models.RoleSeller))
	assert.Equal(t, models.RoleSeller, st.User(buyerID).Role)
}

func TestStatistics(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()

	orders := NewOrderService(st)
	resp, err := orders.CreateOrder(ctx, &CreateOrderRequest{BuyerID: buyerID, ProductID: productID, Quantity: 2, ShippingAddress: "x"})
	require.NoError(t, err)
	require.NoError(t, orders.PayOrder(ctx, resp.OrderID, "card"))
	require.NoError(t, orders.ShipOrder(ctx, resp.OrderID, sellerID, "T1"))
	require.NoError(t, orders.ConfirmReceipt(ctx, resp.OrderID, buyerID))

	_, err = svc.Statistics(ctx, buyerID)
	assert.Error(t, err)

	stats, err := svc.Statistics(ctx, adminID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.OrdersByStatus[models.OrderStatusCompleted])
	assert.True(t, decimal.NewFromInt(200).Equal(stats.CompletedRevenue))
}

func fileReport(t *testing.T, st *memstore.Store, typ models.ReportType, target int64) int64 {
	t.Helper()
	report, err := NewReportService(st).FileReport(context.Background(), &FileReportRequest{
		ReporterID: buyerID, ReportType: typ, TargetID: target, Reason: "violation",
	})
	require.NoError(t, err)
	return report.ID
}

func TestReviewReport(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()

	productReport := fileReport(t, st, models.ReportTypeProduct, productID)
	userReport := fileReport(t, st, models.ReportTypeUser, sellerID)
	dismissed := fileReport(t, st, models.ReportTypeUser, sellerID)

	_, err := svc.PendingReports(ctx, buyerID)
	var permErr *models.PermissionError
	require.ErrorAs(t, err, &permErr)

	pending, err := svc.PendingReports(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, productReport, pending[0].ID)
	assert.Equal(t, "buyer", pending[0].ReporterUsername)

	reviewed, err := svc.ReviewReport(ctx, adminID, productReport, true, "counterfeit confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.AdminID)
	assert.Equal(t, adminID, *reviewed.AdminID)
	assert.Equal(t, models.ProductStatusRemoved, st.Product(productID).Status)

	_, err = svc.ReviewReport(ctx, adminID, dismissed, false, "no evidence")
	require.NoError(t, err)
	assert.False(t, st.User(sellerID).Banned)

	_, err = svc.ReviewReport(ctx, adminID, userReport, true, "spam")
	require.NoError(t, err)
	assert.True(t, st.User(sellerID).Banned)

	_, err = svc.ReviewReport(ctx, adminID, productReport, false, "again")
	assert.ErrorIs(t, err, models.ErrReportReviewed)
	_, err = svc.ReviewReport(ctx, adminID, 9999, true, "")
	assert.ErrorIs(t, err, models.ErrReportNotFound)

	pending, err = svc.PendingReports(ctx, adminID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var actions []string
	for _, l := range st.AdminLogs() {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{"review_report", "review_report", "review_report"}, actions)
}

func TestReviewReportAgainstAdmin(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()
	id := fileReport(t, st, models.ReportTypeUser, otherAdminID)

	_, err := svc.ReviewReport(ctx, adminID, id, true, "abuse")
	var permErr *models.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.False(t, st.User(otherAdminID).Banned)

	_, err = svc.ReviewReport(ctx, superAdminID, id, true, "abuse")
	require.NoError(t, err)
	assert.True(t, st.User(otherAdminID).Banned)
}

func TestAdminListings(t *testing.T) {
	svc, st := newTestAdminService()
	ctx := context.Background()
	require.NoError(t, st.RemoveProduct(ctx, productID))
	st.AddProduct(models.Product{ID: 2, SellerID: sellerID, Title: "Poster", Price: decimal.NewFromInt(5), Stock: 1})

	_, err := svc.ListUsers(ctx, sellerID, 0, 0)
	var permErr *models.PermissionError
	require.ErrorAs(t, err, &permErr)
	_, err = svc.ListProducts(ctx, sellerID, 0, 0)
	require.ErrorAs(t, err, &permErr)

	users, err := svc.ListUsers(ctx, adminID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	users, err = svc.ListUsers(ctx, adminID, 2, 4)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	products, err := svc.ListProducts(ctx, adminID, 0, 0)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(2), products[0].ID)
	assert.Equal(t, models.ProductStatusRemoved, products[1].Status)
}
