package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
)

// Pager reads the product table page by page.
type Pager interface {
	Page(ctx context.Context, query repository.Query) ([]model.Product, string, error)
}

// StoreController exposes the stored rows as they are, without the list view.
type StoreController struct {
	pager Pager
}

// NewStoreController creates a StoreController. A nil pager means no store is configured.
func NewStoreController(pager Pager) *StoreController {
	return &StoreController{pager: pager}
}

// ListStoredProductsRequest represents the query parameters for listing stored products.
type ListStoredProductsRequest struct {
	Limit    int32  `form:"limit"`
	Token    string `form:"token"`
	Category string `form:"category"`
	ToBuy    string `form:"to_buy"`
}

// ListStoredProductsResponse represents the response body for listing stored products.
type ListStoredProductsResponse struct {
	Products      []ProductResponse `json:"products"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// ListStoredProducts handles the HTTP GET request for listing stored products with pagination.
func (sc *StoreController) ListStoredProducts(c *gin.Context) {
	if sc.pager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no store configured"})
		return
	}

	var req ListStoredProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category != "" {
		query.InCategory(req.Category)
	}
	if req.ToBuy != "" {
		toBuy, err := strconv.ParseBool(req.ToBuy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to_buy must be true or false"})
			return
		}
		query.ToBuy(toBuy)
	}

	products, next, err := sc.pager.Page(c.Request.Context(), *query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	c.JSON(http.StatusOK, ListStoredProductsResponse{
		Products:      toProductResponses(products),
		NextPageToken: next,
	})
}
