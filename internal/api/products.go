package api

import (
	"net/http"
	"strconv"

	"anime-market/internal/models"
	"anime-market/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// searchProducts lists available listings.
// Query: q, category, min_price, max_price, sort, limit, offset.
func (h *Handler) searchProducts(c *gin.Context) {
	f := models.ProductFilter{
		Keyword:  c.Query("q"),
		Category: c.Query("category"),
		Sort:     models.ProductSort(c.Query("sort")),
	}

	for param, dst := range map[string]**decimal.Decimal{
		"min_price": &f.MinPrice,
		"max_price": &f.MaxPrice,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			h.reject(c, http.StatusBadRequest, "common.bad_request")
			return
		}
		*dst = &d
	}

	var err error
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	products, err := h.products.Search(c.Request.Context(), f)
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	req.SellerID = callerID(c)

	product, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, product)
}

func (h *Handler) updatePrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	if err := h.products.UpdatePrice(c.Request.Context(), id, callerID(c), req.Price); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) removeProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}

	if err := h.products.RemoveProduct(c.Request.Context(), id, callerID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": h.t(c, "product.removed", nil)})
}

// myProducts lists the caller's listings. ?all=true includes removed ones.
func (h *Handler) myProducts(c *gin.Context) {
	includeRemoved, _ := strconv.ParseBool(c.Query("all"))
	products, err := h.products.ListBySeller(c.Request.Context(), callerID(c), includeRemoved)
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, products)
}

func (h *Handler) favoriteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	if err := h.products.Favorite(c.Request.Context(), callerID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": h.t(c, "product.favorited", nil)})
}

func (h *Handler) unfavoriteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		h.reject(c, http.StatusBadRequest, "common.bad_request")
		return
	}
	if err := h.products.Unfavorite(c.Request.Context(), callerID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": h.t(c, "product.unfavorited", nil)})
}

func (h *Handler) myFavorites(c *gin.Context) {
	favorites, err := h.products.Favorites(c.Request.Context(), callerID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, favorites)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, categories)
}

// productsByCategory lists one category. Query: sort (newest, price_asc,
// price_desc, popular), limit, offset.
func (h *Handler) productsByCategory(c *gin.Context) {
	limit, offset, ok := h.page(c)
	if !ok {
		return
	}

	products, err := h.products.ByCategory(c.Request.Context(), c.Param("name"),
		models.ProductSort(c.Query("sort")), limit, offset)
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.ok(c, http.StatusOK, products)
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
