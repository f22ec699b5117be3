package service

import (
	"context"
	"testing"

	"anime-market/internal/models"
	"anime-market/internal/store/memstore"
	"anime-market/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductService() (*ProductService, *memstore.Store) {
	st := memstore.New()
	st.AddUser(models.User{ID: buyerID, Username: "buyer", Role: models.RoleBuyer})
	st.AddUser(models.User{ID: sellerID, Username: "seller", Role: models.RoleSeller})
	st.AddUser(models.User{ID: strangerID, Username: "other", Role: models.RoleSeller})
	return NewProductService(st), st
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestProductService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &CreateProductRequest{
		SellerID: sellerID,
		Title:    "Nendoroid",
		Category: "figure",
		Price:    decimal.RequireFromString("59.90"),
		Stock:    3,
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, models.ProductStatusAvailable, p.Status)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)
	assert.True(t, decimal.RequireFromString("59.90").Equal(got.Price))
}

func TestCreateProductRejected(t *testing.T) {
	svc, st := newTestProductService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, &CreateProductRequest{SellerID: buyerID, Title: "x", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, models.ErrNotSeller)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{SellerID: sellerID, Title: "x", Price: decimal.Zero})
	assert.ErrorIs(t, err, validator.ErrInvalidPrice)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{SellerID: sellerID, Title: "x", Price: decimal.NewFromInt(1), Stock: -1})
	assert.ErrorIs(t, err, validator.ErrInvalidStock)

	require.NoError(t, st.SetUserBanned(ctx, sellerID, true))
	_, err = svc.CreateProduct(ctx, &CreateProductRequest{SellerID: sellerID, Title: "x", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, models.ErrUserBanned)

	found, err := svc.ListBySeller(ctx, sellerID, true)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearchProducts(t *testing.T) {
	svc, _ := newTestProductService()
	ctx := context.Background()

	for _, req := range []CreateProductRequest{
		{Title: "Miku figure", Category: "figure", Price: decimal.NewFromInt(120), Stock: 1},
		{Title: "Miku poster", Category: "poster", Price: decimal.NewFromInt(20), Stock: 5},
		{Title: "Totoro plush", Category: "plush", Price: decimal.NewFromInt(45), Stock: 2},
	} {
		req := req
		req.SellerID = sellerID
		_, err := svc.CreateProduct(ctx, &req)
		require.NoError(t, err)
	}

	found, err := svc.Search(ctx, models.ProductFilter{Keyword: "miku"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	max := decimal.NewFromInt(50)
	found, err = svc.Search(ctx, models.ProductFilter{MaxPrice: &max})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.Search(ctx, models.ProductFilter{Keyword: "miku", Category: "figure"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Miku figure", found[0].Title)
}

func TestUpdatePrice(t *testing.T) {
	svc, st := newTestProductService()
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, &CreateProductRequest{SellerID: sellerID, Title: "Artbook", Price: decimal.NewFromInt(30), Stock: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdatePrice(ctx, p.ID, sellerID, decimal.NewFromInt(-5)), validator.ErrInvalidPrice)
	assert.ErrorIs(t, svc.UpdatePrice(ctx, p.ID, strangerID, decimal.NewFromInt(25)), models.ErrProductNotFound)
	require.NoError(t, svc.UpdatePrice(ctx, p.ID, sellerID, decimal.NewFromInt(25)))
	assert.True(t, decimal.NewFromInt(25).Equal(st.Product(p.ID).Price))
}

func TestRemovedProductCannotBeOrdered(t *testing.T) {
	svc, st := newTestProductService()
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, &CreateProductRequest{SellerID: sellerID, Title: "Keychain", Price: decimal.NewFromInt(5), Stock: 4})
	require.NoError(t, err)

	var permErr *models.PermissionError
	assert.ErrorAs(t, svc.RemoveProduct(ctx, p.ID, strangerID), &permErr)
	require.NoError(t, svc.RemoveProduct(ctx, p.ID, sellerID))

	own, err := svc.ListBySeller(ctx, sellerID, false)
	require.NoError(t, err)
	assert.Empty(t, own)
	all, err := svc.ListBySeller(ctx, sellerID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	orders := NewOrderService(st)
	_, err = orders.CreateOrder(ctx, &CreateOrderRequest{BuyerID: buyerID, ProductID: p.ID, Quantity: 1, ShippingAddress: "x"})
	assert.ErrorIs(t, err, models.ErrProductUnavailable)
	assert.Equal(t, 4, st.Stock(p.ID))
}

func TestFavorites(t *testing.T) {
	svc, st := newTestProductService()
	ctx := context.Background()
	st.AddProduct(models.Product{ID: 10, SellerID: sellerID, Title: "Acrylic stand", Price: decimal.NewFromInt(20), Stock: 5})
	st.AddProduct(models.Product{ID: 11, SellerID: sellerID, Title: "Poster", Price: decimal.NewFromInt(15), Stock: 5})

	require.NoError(t, svc.Favorite(ctx, buyerID, 10))
	require.NoError(t, svc.Favorite(ctx, buyerID, 11))
	require.NoError(t, svc.Favorite(ctx, strangerID, 10))
	assert.EqualValues(t, 2, st.Product(10).FavoriteCount)

	err := svc.Favorite(ctx, buyerID, 10)
	assert.ErrorIs(t, err, models.ErrAlreadyFavorited)
	assert.EqualValues(t, 2, st.Product(10).FavoriteCount)

	assert.ErrorIs(t, svc.Favorite(ctx, buyerID, 999), models.ErrProductNotFound)

	favorites, err := svc.Favorites(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	ids := []int64{favorites[0].ID, favorites[1].ID}
	assert.ElementsMatch(t, []int64{10, 11}, ids)

	require.NoError(t, svc.Unfavorite(ctx, buyerID, 10))
	assert.EqualValues(t, 1, st.Product(10).FavoriteCount)
	assert.ErrorIs(t, svc.Unfavorite(ctx, buyerID, 10), models.ErrNotFavorited)

	favorites, err = svc.Favorites(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, int64(11), favorites[0].ID)
}

func TestCategories(t *testing.T) {
	svc, st := newTestProductService()
	ctx := context.Background()
	st.AddProduct(models.Product{ID: 20, SellerID: sellerID, Title: "Miku", Category: "vocaloid", Price: decimal.NewFromInt(30), Stock: 1})
	st.AddProduct(models.Product{ID: 21, SellerID: sellerID, Title: "Luka", Category: "vocaloid", Price: decimal.NewFromInt(10), Stock: 1, ViewCount: 7})
	st.AddProduct(models.Product{ID: 22, SellerID: sellerID, Title: "Asuka", Category: "eva", Price: decimal.NewFromInt(50), Stock: 1})
	st.AddProduct(models.Product{ID: 23, SellerID: sellerID, Title: "Rei", Category: "eva", Price: decimal.NewFromInt(40), Stock: 1, Status: models.ProductStatusRemoved})
	st.AddProduct(models.Product{ID: 24, SellerID: sellerID, Title: "Gone", Category: "retired", Price: decimal.NewFromInt(5), Stock: 1, Status: models.ProductStatusRemoved})

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eva", "vocaloid"}, categories)

	tests := []struct {
		sort models.ProductSort
		want []int64
	}{
		{models.SortNewest, []int64{21, 20}},
		{models.SortPriceAsc, []int64{21, 20}},
		{models.SortPriceDesc, []int64{20, 21}},
		{models.SortPopular, []int64{21, 20}},
		{"bogus", []int64{21, 20}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			products, err := svc.ByCategory(ctx, "vocaloid", tt.sort, 0, 0)
			require.NoError(t, err)
			got := make([]int64, len(products))
			for i, p := range products {
				got[i] = p.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}

	products, err := svc.ByCategory(ctx, "eva", models.SortNewest, 0, 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(22), products[0].ID)

	products, err = svc.ByCategory(ctx, "vocaloid", models.SortPriceAsc, 1, 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(20), products[0].ID)
}
