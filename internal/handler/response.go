package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-service/internal/model"
)

// envelope is the body of every JSON response the API sends.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Meta    *model.PageInfo     `json:"meta,omitempty"`
}

func success(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func paginated(c echo.Context, status int, msg string, data any, meta model.PageInfo) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data, Meta: &meta})
}
