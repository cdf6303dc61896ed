package services

import (
	"encoding/json"
	"log"
	"time"
)

// Routing keys of catalog events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher delivers catalog events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is the payload published for every catalog mutation.
type ProductEvent struct {
	ProductID  uint      `json:"product_id"`
	Name       string    `json:"name,omitempty"`
	Images     []string  `json:"images,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publish never fails the caller; the database is already committed when it runs.
func publish(p EventPublisher, routingKey string, event ProductEvent) {
	if p == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := p.Publish(routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for product %d: %v", routingKey, event.ProductID, err)
	}
}
