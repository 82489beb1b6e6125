// Package ports defines the interfaces the quotes domain requires from
// external systems. Implementations live in internal/adapters and are wired
// by the composition root, so the quotes module never imports another
// service's client code directly.
package ports

import (
	"context"

	"b2b_marketplace_backend/internal/quotes/domain"
)

// OrderCreator creates an order in the orders service.
// Implementations must forward OrderRequest.IdempotencyKey so a retried
// conversion cannot create a second order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReference, error)
}
