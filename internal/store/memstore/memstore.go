// Package memstore is an in-memory implementation of the persistence the
// services need, useful for tests and local development. Stock reservation
// and status transitions are conditional under one mutex, matching the
// guarantees of the Postgres store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"anime-market/internal/models"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	products  map[int64]*models.Product
	orders    map[int64]*models.Order
	users     map[int64]*models.User
	messages  []models.Message
	logs      []models.AdminLog
	processed map[string]bool
	favorites map[favoriteKey]time.Time
	reports   map[int64]*models.Report

	applyErr    error
	interceptor func(orders map[int64]*models.Order)
}

func New() *Store {
	return &Store{
		nextID:    1000,
		products:  map[int64]*models.Product{},
		orders:    map[int64]*models.Order{},
		users:     map[int64]*models.User{},
		processed: map[string]bool{},
		favorites: map[favoriteKey]time.Time{},
		reports:   map[int64]*models.Report{},
	}
}

type favoriteKey struct {
	userID    int64
	productID int64
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

// AddProduct seeds a product with a fixed ID
func (m *Store) AddProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Status == "" {
		p.Status = models.ProductStatusAvailable
	}
	m.products[p.ID] = &p
}

// AddUser seeds a user with a fixed ID
func (m *Store) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

// FailApply makes every following ApplyTransition return err
func (m *Store) FailApply(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyErr = err
}

// InterceptNextApply runs fn under the store lock just before the next
// transition is checked, simulating a concurrent writer.
func (m *Store) InterceptNextApply(fn func(orders map[int64]*models.Order)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interceptor = fn
}

func (m *Store) Stock(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].Stock
}

func (m *Store) Product(productID int64) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[productID]
}

func (m *Store) User(userID int64) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[userID]
}

func (m *Store) OrderStatus(orderID int64) models.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID].Status
}

// Orders returns a snapshot of every order
func (m *Store) Orders() []models.Order {
	return m.listOrders(func(*models.Order) bool { return true })
}

func (m *Store) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *Store) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Inbox returns messages received by userID in send order
func (m *Store) Inbox(userID int64) []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == userID {
			out = append(out, msg)
		}
	}
	return out
}

func (m *Store) AdminLogs() []models.AdminLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AdminLog(nil), m.logs...)
}

func (m *Store) Ping(context.Context) error { return nil }

func (m *Store) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *Store) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrProductNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (m *Store) IncrementProductViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.ViewCount++
	}
	return nil
}

func (m *Store) SearchProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kw := strings.ToLower(f.Keyword)
	out := []models.Product{}
	for _, p := range m.products {
		if p.Status != models.ProductStatusAvailable {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(p.Title), kw) && !strings.Contains(strings.ToLower(p.Description), kw) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		out = append(out, *p)
	}
	sortProducts(out, f.Sort)
	return paginate(out, f.Limit, f.Offset), nil
}

// sortProducts mirrors the SQL orderings; newer IDs stand in for newer rows
func sortProducts(products []models.Product, by models.ProductSort) {
	newer := func(i, j int) bool { return products[i].ID > products[j].ID }
	less := newer
	switch by {
	case models.SortPriceAsc:
		less = func(i, j int) bool {
			if c := products[i].Price.Cmp(products[j].Price); c != 0 {
				return c < 0
			}
			return newer(i, j)
		}
	case models.SortPriceDesc:
		less = func(i, j int) bool {
			if c := products[i].Price.Cmp(products[j].Price); c != 0 {
				return c > 0
			}
			return newer(i, j)
		}
	case models.SortPopular:
		less = func(i, j int) bool {
			if products[i].ViewCount != products[j].ViewCount {
				return products[i].ViewCount > products[j].ViewCount
			}
			if products[i].FavoriteCount != products[j].FavoriteCount {
				return products[i].FavoriteCount > products[j].FavoriteCount
			}
			return newer(i, j)
		}
	}
	sort.Slice(products, less)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *Store) ListProductsBySeller(_ context.Context, sellerID int64, includeRemoved bool) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if p.SellerID != sellerID || (!includeRemoved && p.Status == models.ProductStatusRemoved) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Store) UpdateProductPrice(_ context.Context, productID, sellerID int64, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.SellerID != sellerID {
		return fmt.Errorf("%w: %d", models.ErrProductNotFound, productID)
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

func (m *Store) RemoveProduct(_ context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Status == models.ProductStatusRemoved {
		return fmt.Errorf("%w: %d", models.ErrProductNotFound, productID)
	}
	p.Status = models.ProductStatusRemoved
	return nil
}

// CreateOrder reserves stock and inserts the order in one step. The total
// is computed from the price at this moment.
func (m *Store) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[o.ProductID]
	switch {
	case !ok:
		return fmt.Errorf("%w: %d", models.ErrProductNotFound, o.ProductID)
	case p.Status != models.ProductStatusAvailable:
		return fmt.Errorf("%w: product %d is %s", models.ErrProductUnavailable, o.ProductID, p.Status)
	case p.Stock < o.Quantity:
		return fmt.Errorf("%w: product %d has %d, requested %d",
			models.ErrInsufficientStock, o.ProductID, p.Stock, o.Quantity)
	}
	p.Stock -= o.Quantity

	o.ID = m.id()
	o.SellerID = p.SellerID
	o.TotalPrice = p.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
	o.Status = models.OrderStatusPending
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *Store) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	cp := *o
	return &cp, nil
}

// ApplyTransition commits t only if the order is still in t.From
func (m *Store) ApplyTransition(_ context.Context, t *models.OrderTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn := m.interceptor; fn != nil {
		m.interceptor = nil
		fn(m.orders)
	}
	if m.applyErr != nil {
		return m.applyErr
	}
	o, ok := m.orders[t.OrderID]
	if !ok || o.Status != t.From {
		return fmt.Errorf("%w: order %d", models.ErrOrderConflict, t.OrderID)
	}
	t.ApplyTo(o)
	o.UpdatedAt = time.Now()
	if t.RestockQuantity > 0 {
		m.products[t.RestockProductID].Stock += t.RestockQuantity
	}
	return nil
}

func (m *Store) listOrders(match func(*models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *Store) ListOrdersByBuyer(_ context.Context, buyerID int64) ([]models.Order, error) {
	return m.listOrders(func(o *models.Order) bool { return o.BuyerID == buyerID }), nil
}

func (m *Store) ListOrdersBySeller(_ context.Context, sellerID int64) ([]models.Order, error) {
	return m.listOrders(func(o *models.Order) bool { return o.SellerID == sellerID }), nil
}

func (m *Store) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("%w: %s", models.ErrUserExists, u.Username)
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Store) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (m *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUserNotFound, username)
}

func (m *Store) SetUserBanned(_ context.Context, userID int64, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, userID)
	}
	u.Banned = banned
	return nil
}

func (m *Store) SetUserRole(_ context.Context, userID int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, userID)
	}
	u.Role = role
	return nil
}

func (m *Store) CreateMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *Store) ListMessagesForUser(_ context.Context, userID int64, limit int) ([]models.Message, error) {
	out := m.Inbox(userID)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *Store) MarkMessagesRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.messages {
		if m.messages[i].ReceiverID == userID && !m.messages[i].IsRead {
			m.messages[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *Store) CreateAdminLog(_ context.Context, entry *models.AdminLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	entry.CreatedAt = time.Now()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *Store) GetStatistics(_ context.Context) (*models.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.Statistics{
		TotalUsers:     int64(len(m.users)),
		TotalProducts:  int64(len(m.products)),
		TotalOrders:    int64(len(m.orders)),
		OrdersByStatus: map[models.OrderStatus]int64{},
	}
	for _, r := range m.reports {
		if r.Status == models.ReportStatusPending {
			stats.PendingReports++
		}
	}
	for _, u := range m.users {
		if u.Banned {
			stats.BannedUsers++
		}
	}
	for _, p := range m.products {
		if p.Status == models.ProductStatusAvailable {
			stats.AvailableProducts++
		}
	}
	for _, o := range m.orders {
		stats.OrdersByStatus[o.Status]++
		if o.Status == models.OrderStatusCompleted {
			stats.CompletedRevenue = stats.CompletedRevenue.Add(o.TotalPrice)
		}
	}
	return stats, nil
}

func (m *Store) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *Store) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = true
	return nil
}

func (m *Store) ListUsers(_ context.Context, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (m *Store) ListAllProducts(_ context.Context, limit, offset int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	sortProducts(out, models.SortNewest)
	return paginate(out, limit, offset), nil
}

func (m *Store) AddFavorite(_ context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrProductNotFound, productID)
	}
	key := favoriteKey{userID, productID}
	if _, ok := m.favorites[key]; ok {
		return fmt.Errorf("%w: user %d, product %d", models.ErrAlreadyFavorited, userID, productID)
	}
	m.favorites[key] = time.Now()
	p.FavoriteCount++
	return nil
}

func (m *Store) RemoveFavorite(_ context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := favoriteKey{userID, productID}
	if _, ok := m.favorites[key]; !ok {
		return fmt.Errorf("%w: user %d, product %d", models.ErrNotFavorited, userID, productID)
	}
	delete(m.favorites, key)
	if p, ok := m.products[productID]; ok && p.FavoriteCount > 0 {
		p.FavoriteCount--
	}
	return nil
}

func (m *Store) ListFavorites(_ context.Context, userID int64) ([]models.FavoriteProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.FavoriteProduct{}
	for key, at := range m.favorites {
		if key.userID != userID {
			continue
		}
		if p, ok := m.products[key.productID]; ok {
			out = append(out, models.FavoriteProduct{Product: *p, FavoritedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FavoritedAt.Equal(out[j].FavoritedAt) {
			return out[i].FavoritedAt.After(out[j].FavoritedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Store) ListCategories(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range m.products {
		if p.Status != models.ProductStatusAvailable || p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) CreateReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	r.Status = models.ReportStatusPending
	r.CreatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *Store) GetReport(_ context.Context, id int64) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrReportNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *Store) ListPendingReports(context.Context) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Report{}
	for _, r := range m.reports {
		if r.Status != models.ReportStatusPending {
			continue
		}
		cp := *r
		if u, ok := m.users[r.ReporterID]; ok {
			cp.ReporterUsername = u.Username
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) ReviewReport(_ context.Context, reportID, adminID int64, approved bool, result string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrReportNotFound, reportID)
	}
	if r.Status != models.ReportStatusPending {
		return nil, fmt.Errorf("%w: %d is %s", models.ErrReportReviewed, reportID, r.Status)
	}

	r.Status = models.ReportStatusRejected
	if approved {
		r.Status = models.ReportStatusApproved
		switch r.ReportType {
		case models.ReportTypeProduct:
			if p, ok := m.products[r.TargetID]; ok {
				p.Status = models.ProductStatusRemoved
			}
		case models.ReportTypeUser:
			if u, ok := m.users[r.TargetID]; ok {
				u.Banned = true
			}
		}
	}
	now := time.Now()
	r.AdminID = &adminID
	r.Result = &result
	r.ReviewedAt = &now
	cp := *r
	return &cp, nil
}
