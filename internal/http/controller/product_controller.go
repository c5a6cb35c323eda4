package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/engine"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/preferences"
)

// ProductEngine is the list engine as seen by the HTTP layer.
type ProductEngine interface {
	StoreStatus
	View(opts engine.ViewOptions) []model.Product
	Totals(marginPct float64) engine.Totals
	Categories() []string
	Refresh(ctx context.Context) error
	Create(ctx context.Context, in engine.ProductInput) (model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in engine.ProductInput) (model.Product, error)
	ToggleToBuy(ctx context.Context, id uuid.UUID) (model.Product, error)
	ToggleInCart(ctx context.Context, id uuid.UUID) (model.Product, error)
	UpdateUnitPrice(ctx context.Context, id uuid.UUID, value any) error
	Delete(ctx context.Context, id uuid.UUID, confirm engine.Confirmer) error
	ResetMonth(ctx context.Context, confirm engine.Confirmer) (int, error)
}

// Preferences gives the current view settings.
type Preferences interface {
	Snapshot() preferences.Values
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	engine ProductEngine
	prefs  Preferences
}

// NewProductController creates a new ProductController.
func NewProductController(engine ProductEngine, prefs Preferences) *ProductController {
	return &ProductController{
		engine: engine,
		prefs:  prefs,
	}
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Brand            string  `json:"brand"`
	Category         string  `json:"category"`
	Aisle            string  `json:"aisle"`
	Quantity         float64 `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`
	UnitPriceDisplay string  `json:"unit_price_display"`
	LineTotal        float64 `json:"line_total"`
	LineTotalDisplay string  `json:"line_total_display"`
	ToBuy            bool    `json:"to_buy"`
	InCart           bool    `json:"in_cart"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// TotalsResponse represents the list totals.
type TotalsResponse struct {
	Base            float64 `json:"base"`
	BaseDisplay     string  `json:"base_display"`
	Cart            float64 `json:"cart"`
	CartDisplay     string  `json:"cart_display"`
	MarkedUp        float64 `json:"marked_up"`
	MarkedUpDisplay string  `json:"marked_up_display"`
	MarginPct       float64 `json:"margin_pct"`
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
}

// ListProductsResponse is the whole list screen.
type ListProductsResponse struct {
	Products     []ProductResponse `json:"products"`
	Totals       TotalsResponse    `json:"totals"`
	Categories   []string          `json:"categories"`
	ShoppingMode bool              `json:"shopping_mode"`
	Loading      bool              `json:"loading"`
	Offline      bool              `json:"offline"`
}

// UpdatePriceRequest represents the request body for a price change.
type UpdatePriceRequest struct {
	UnitPrice any `json:"unit_price"`
}

// ListProducts handles the HTTP GET request for the filtered product list.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category == "" {
		req.Category = engine.AllCategories
	}

	prefs := pc.prefs.Snapshot()
	products := pc.engine.View(engine.ViewOptions{
		Search:       req.Search,
		Category:     req.Category,
		ShoppingMode: prefs.ShoppingMode,
	})

	c.JSON(http.StatusOK, ListProductsResponse{
		Products:     toProductResponses(products),
		Totals:       toTotalsResponse(pc.engine.Totals(prefs.MarginPct), prefs.MarginPct),
		Categories:   pc.engine.Categories(),
		ShoppingMode: prefs.ShoppingMode,
		Loading:      pc.engine.Loading(),
		Offline:      pc.engine.Offline(),
	})
}

// Totals handles the HTTP GET request for the list totals.
func (pc *ProductController) Totals(c *gin.Context) {
	margin := pc.prefs.Snapshot().MarginPct
	c.JSON(http.StatusOK, toTotalsResponse(pc.engine.Totals(margin), margin))
}

// Categories handles the HTTP GET request for the category registry.
func (pc *ProductController) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": pc.engine.Categories()})
}

// CreateProduct handles the HTTP POST request for creating a new product.
// Without a store the product is echoed back with 202 and not kept.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req engine.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := pc.engine.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if pc.engine.Offline() {
		status = http.StatusAccepted
	}
	c.JSON(status, toProductResponse(created))
}

// UpdateProduct handles the HTTP PUT request for saving the product form.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req engine.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := pc.engine.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(updated))
}

// ToggleToBuy handles the HTTP PATCH request flipping the to-buy flag.
func (pc *ProductController) ToggleToBuy(c *gin.Context) {
	pc.toggle(c, pc.engine.ToggleToBuy)
}

// ToggleInCart handles the HTTP PATCH request flipping the in-cart flag.
func (pc *ProductController) ToggleInCart(c *gin.Context) {
	pc.toggle(c, pc.engine.ToggleInCart)
}

func (pc *ProductController) toggle(c *gin.Context, fn func(context.Context, uuid.UUID) (model.Product, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := fn(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// UpdatePrice handles the HTTP PATCH request for a price change.
// The write happens in the background so the response is 202.
func (pc *ProductController) UpdatePrice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := pc.engine.UpdateUnitPrice(c.Request.Context(), id, req.UnitPrice); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "price update accepted"})
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := pc.engine.Delete(c.Request.Context(), id, confirmation(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

// ResetMonth handles the HTTP POST request unchecking every product.
func (pc *ProductController) ResetMonth(c *gin.Context) {
	n, err := pc.engine.ResetMonth(c.Request.Context(), confirmation(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": n})
}

// Refresh handles the HTTP POST request for a manual refetch.
func (pc *ProductController) Refresh(c *gin.Context) {
	if err := pc.engine.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "products refreshed"})
}

// confirmation answers the engine prompt with the confirm query parameter.
func confirmation(c *gin.Context) engine.Confirmer {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	return engine.ConfirmFunc(func(string) bool { return confirmed })
}

func toProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toProductResponse(product model.Product) ProductResponse {
	line := product.LineTotal()
	return ProductResponse{
		ID:               product.ID.String(),
		Name:             product.Name,
		Brand:            product.Brand,
		Category:         product.Category,
		Aisle:            product.Aisle,
		Quantity:         product.Quantity,
		UnitPrice:        product.UnitPrice,
		UnitPriceDisplay: money(product.UnitPrice),
		LineTotal:        line,
		LineTotalDisplay: money(line),
		ToBuy:            product.ToBuy,
		InCart:           product.InCart,
		CreatedAt:        product.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        product.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTotalsResponse(t engine.Totals, marginPct float64) TotalsResponse {
	return TotalsResponse{
		Base:            t.Base,
		BaseDisplay:     money(t.Base),
		Cart:            t.Cart,
		CartDisplay:     money(t.Cart),
		MarkedUp:        t.MarkedUp,
		MarkedUpDisplay: money(t.MarkedUp),
		MarginPct:       marginPct,
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
