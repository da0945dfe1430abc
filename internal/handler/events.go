package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/middleware"
	"github.com/iliyamo/inventory-service/internal/queue"
	"github.com/iliyamo/inventory-service/internal/service"
)

// eventEmitter publishes catalog events after committed writes. Publish
// failures are logged and never change the response.
type eventEmitter struct {
	pub   service.EventPublisher
	clock clock.Clock
	log   *zap.Logger
}

func (e eventEmitter) emit(c echo.Context, typ string, entityID uint64, name string, categoryID uint64) {
	if e.pub == nil {
		return
	}
	var actor uint64
	if id, ok := middleware.IdentityFrom(c); ok {
		actor = id.UserID
	}
	ev := queue.NewCatalogEvent(typ, entityID, name, actor, e.clock.Now())
	ev.CategoryID = categoryID

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("catalog event not published", zap.String("event", typ), zap.Uint64("entity_id", entityID), zap.Error(err))
	}
}
