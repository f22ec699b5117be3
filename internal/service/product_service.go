package service

import (
	"context"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"
	"anime-market/internal/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductStore persists the catalog
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	IncrementProductViews(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	ListProductsBySeller(ctx context.Context, sellerID int64, includeRemoved bool) ([]models.Product, error)
	UpdateProductPrice(ctx context.Context, productID, sellerID int64, price decimal.Decimal) error
	RemoveProduct(ctx context.Context, productID int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	AddFavorite(ctx context.Context, userID, productID int64) error
	RemoveFavorite(ctx context.Context, userID, productID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]models.FavoriteProduct, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// ProductService manages listings
type ProductService struct {
	store  ProductStore
	logger *zap.Logger
}

func NewProductService(store ProductStore) *ProductService {
	return &ProductService{
		store:  store,
		logger: util.Named("product"),
	}
}

// CreateProductRequest represents a new listing
type CreateProductRequest struct {
	SellerID    int64           `json:"-"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// CreateProduct lists a product for a seller
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	seller, err := s.store.GetUserByID(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}
	if seller.Banned {
		return nil, fmt.Errorf("%w: %d", models.ErrUserBanned, seller.ID)
	}
	if !seller.CanSell() {
		return nil, fmt.Errorf("%w: %d has role %s", models.ErrNotSeller, seller.ID, seller.Role)
	}
	if err := validator.Price(req.Price); err != nil {
		return nil, err
	}
	if err := validator.Stock(req.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:    seller.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      models.ProductStatusAvailable,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product listed",
		zap.Int64("product_id", product.ID),
		zap.Int64("seller_id", product.SellerID),
		zap.String("price", product.Price.String()),
		zap.Int("stock", product.Stock))
	return product, nil
}

// GetProduct returns a listing and counts the view
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementProductViews(ctx, id); err != nil {
		s.logger.Warn("Failed to count product view", zap.Int64("product_id", id), zap.Error(err))
	} else {
		product.ViewCount++
	}
	return product, nil
}

// Search lists available products matching the filter
func (s *ProductService) Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	return s.store.SearchProducts(ctx, f)
}

// ListBySeller lists a seller's own products
func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64, includeRemoved bool) ([]models.Product, error) {
	return s.store.ListProductsBySeller(ctx, sellerID, includeRemoved)
}

// UpdatePrice changes the listed price. Orders already placed keep their total.
func (s *ProductService) UpdatePrice(ctx context.Context, productID, sellerID int64, price decimal.Decimal) error {
	if err := validator.Price(price); err != nil {
		return err
	}
	return s.store.UpdateProductPrice(ctx, productID, sellerID, price)
}

// RemoveProduct lets a seller take down their own listing
func (s *ProductService) RemoveProduct(ctx context.Context, productID, sellerID int64) error {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return &models.PermissionError{UserID: sellerID, Role: models.RoleSeller, Action: "remove another seller's product"}
	}
	return s.store.RemoveProduct(ctx, productID)
}

// Favorite adds a product to the user's favorites
func (s *ProductService) Favorite(ctx context.Context, userID, productID int64) error {
	if err := s.store.AddFavorite(ctx, userID, productID); err != nil {
		return err
	}
	s.logger.Debug("Product favorited", zap.Int64("user_id", userID), zap.Int64("product_id", productID))
	return nil
}

// Unfavorite drops a product from the user's favorites
func (s *ProductService) Unfavorite(ctx context.Context, userID, productID int64) error {
	return s.store.RemoveFavorite(ctx, userID, productID)
}

// Favorites lists the user's favorites, most recently added first
func (s *ProductService) Favorites(ctx context.Context, userID int64) ([]models.FavoriteProduct, error) {
	return s.store.ListFavorites(ctx, userID)
}

// Categories lists the categories that currently have available products
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

// ByCategory lists available products of one category. An unknown sort falls back to newest.
func (s *ProductService) ByCategory(ctx context.Context, category string, sort models.ProductSort, limit, offset int) ([]models.Product, error) {
	return s.store.SearchProducts(ctx, models.ProductFilter{
		Category: category,
		Sort:     sort,
		Limit:    limit,
		Offset:   offset,
	})
}
