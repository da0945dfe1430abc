package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/model"
	"github.com/iliyamo/inventory-service/internal/queue"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/service"
)

// CategoryHandler serves the category directory.
type CategoryHandler struct {
	Categories *repository.CategoryRepo
	events     eventEmitter
}

func NewCategoryHandler(cats *repository.CategoryRepo, pub service.EventPublisher, clk clock.Clock, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{Categories: cats, events: eventEmitter{pub: pub, clock: clk, log: log}}
}

type categoryReq struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

func (r *categoryReq) normalize() { r.Name = strings.TrimSpace(r.Name) }

func (*categoryReq) messages() map[string]string {
	return map[string]string{
		"name.required": "Category name is required",
		"name.min":      "Category name must be at least 2 characters",
	}
}

// List returns every category alphabetically.
func (h *CategoryHandler) List(c echo.Context) error {
	cats, err := h.Categories.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Categories retrieved successfully", cats)
}

// Show resolves :category as a numeric id first, then as a slug.
func (h *CategoryHandler) Show(c echo.Context) error {
	key := strings.TrimSpace(c.Param("category"))
	ctx := c.Request().Context()

	var (
		cat *model.Category
		err error
	)
	if id, perr := strconv.ParseUint(key, 10, 64); perr == nil {
		cat, err = h.Categories.FindByID(ctx, id)
	} else {
		cat, err = h.Categories.FindBySlug(ctx, key)
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Category retrieved successfully", cat)
}

// Create adds a category. Name and derived slug must both be unused.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.Categories.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	h.events.emit(c, queue.CategoryCreated, cat.ID, cat.Name, 0)
	return success(c, http.StatusCreated, "Category created successfully", cat)
}
