package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/model"
	"github.com/iliyamo/inventory-service/internal/queue"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/service"
)

// ProductHandler serves the product collection.
type ProductHandler struct {
	Products *repository.ProductRepo
	events   eventEmitter
}

func NewProductHandler(products *repository.ProductRepo, pub service.EventPublisher, clk clock.Clock, log *zap.Logger) *ProductHandler {
	return &ProductHandler{Products: products, events: eventEmitter{pub: pub, clock: clk, log: log}}
}

// productResource is the JSON shape of a product. Price is a string with
// exactly two decimals so clients never see float artefacts.
type productResource struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Quantity    int               `json:"quantity"`
	Price       string            `json:"price"`
	CategoryID  uint64            `json:"categoryId"`
	Category    model.CategoryRef `json:"category"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toResource(p model.Product) productResource {
	return productResource{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       strconv.FormatFloat(p.Price, 'f', 2, 64),
		CategoryID:  p.CategoryID,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ----- DTOs -----

// createProductReq accepts the category as categoryId or category_id.
// Quantity and price bounds match the INT and DECIMAL(10,2) columns.
type createProductReq struct {
	Name          string   `json:"name" validate:"required,min=2,max=255"`
	Description   *string  `json:"description"`
	Quantity      *int     `json:"quantity" validate:"required,min=0,max=2147483647"`
	Price         *float64 `json:"price" validate:"required,min=0,max=99999999.99,price"`
	CategoryID    *uint64  `json:"categoryId" validate:"required,min=1"`
	CategoryIDAlt *uint64  `json:"category_id" validate:"-"`
}

func (r *createProductReq) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	if r.CategoryID == nil {
		r.CategoryID = r.CategoryIDAlt
	}
}

func (*createProductReq) messages() map[string]string {
	return productMessages
}

type updateProductReq struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description"`
	Quantity      *int     `json:"quantity" validate:"omitempty,min=0,max=2147483647"`
	Price         *float64 `json:"price" validate:"omitempty,min=0,max=99999999.99,price"`
	CategoryID    *uint64  `json:"categoryId" validate:"omitempty,min=1"`
	CategoryIDAlt *uint64  `json:"category_id" validate:"-"`
}

func (r *updateProductReq) normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	if r.CategoryID == nil {
		r.CategoryID = r.CategoryIDAlt
	}
}

func (*updateProductReq) messages() map[string]string {
	return productMessages
}

var productMessages = map[string]string{
	"name.required":       "Product name is required",
	"name.min":            "Product name must be at least 2 characters",
	"name.max":            "Product name must not exceed 255 characters",
	"quantity.required":   "Quantity is required",
	"quantity.min":        "Quantity must be a non-negative integer",
	"quantity.max":        "Quantity must not exceed 2147483647",
	"price.required":      "Price is required",
	"price.min":           "Price must be a non-negative number",
	"price.max":           "Price must not exceed 99999999.99",
	"price.price":         "Price must have at most 2 decimal places",
	"categoryId.required": "Category ID is required",
	"categoryId.min":      "Category ID must be a valid integer",
}

// List returns one page of live products. Query parameters are permissive:
// anything malformed falls back to its default.
func (h *ProductHandler) List(c echo.Context) error {
	q := repository.ProductQuery{
		Search:   c.QueryParam("search"),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Sort:     strings.TrimSpace(c.QueryParam("sort")),
		Order:    strings.TrimSpace(c.QueryParam("order")),
	}
	perPage := c.QueryParam("per_page")
	if perPage == "" {
		perPage = c.QueryParam("perPage")
	}
	if n, err := strconv.Atoi(strings.TrimSpace(perPage)); err == nil {
		q.PerPage = &n
	}
	q.Page, _ = strconv.Atoi(strings.TrimSpace(c.QueryParam("page")))

	items, meta, err := h.Products.Query(c.Request().Context(), q)
	if err != nil {
		return err
	}
	out := make([]productResource, 0, len(items))
	for _, p := range items {
		out = append(out, toResource(p))
	}
	return paginated(c, http.StatusOK, "Products retrieved successfully", out, meta)
}

// Show returns one live product.
func (h *ProductHandler) Show(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	p, err := h.Products.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Product retrieved successfully", toResource(*p))
}

// Create adds a product to an existing category.
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := repository.ProductInput{
		Name:       req.Name,
		Quantity:   *req.Quantity,
		Price:      *req.Price,
		CategoryID: *req.CategoryID,
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	p, err := h.Products.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.events.emit(c, queue.ProductCreated, p.ID, p.Name, p.CategoryID)
	return success(c, http.StatusCreated, "Product created successfully", toResource(*p))
}

// Update applies a partial update. PUT and PATCH behave the same.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	var req updateProductReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.Products.Update(c.Request().Context(), id, repository.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return err
	}
	h.events.emit(c, queue.ProductUpdated, p.ID, p.Name, p.CategoryID)
	return success(c, http.StatusOK, "Product updated successfully", toResource(*p))
}

// Delete soft-deletes a product.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := h.Products.SoftDelete(ctx, id); err != nil {
		return err
	}
	h.events.emit(c, queue.ProductDeleted, p.ID, p.Name, p.CategoryID)
	return success(c, http.StatusOK, "Product deleted successfully", nil)
}

// productID parses :id. Anything that is not a positive integer cannot name
// a product, so it is reported as not found.
func productID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, repository.ErrProductNotFound
	}
	return id, nil
}
