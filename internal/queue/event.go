// Package queue defines catalog events exchanged over the message broker and
// the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQueue is the durable queue catalog events are routed to.
const DefaultQueue = "catalog.events"

// Event types published after successful catalog writes.
const (
	ProductCreated  = "product.created"
	ProductUpdated  = "product.updated"
	ProductDeleted  = "product.deleted"
	CategoryCreated = "category.created"
)

// CatalogEvent is published after a committed catalog mutation. It carries
// enough for downstream consumers to log or trigger follow-up work without
// querying the primary database.
type CatalogEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EntityID   uint64    `json:"entity_id"`
	Name       string    `json:"name"`
	CategoryID uint64    `json:"category_id,omitempty"`
	ActorID    uint64    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewCatalogEvent stamps an event with a fresh id.
func NewCatalogEvent(typ string, entityID uint64, name string, actorID uint64, at time.Time) CatalogEvent {
	return CatalogEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		EntityID:   entityID,
		Name:       name,
		ActorID:    actorID,
		OccurredAt: at.UTC(),
	}
}
