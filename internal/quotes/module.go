// Package quotes provides the quote negotiation and order conversion module.
package quotes

import (
	apphttp "b2b_marketplace_backend/internal/http"
	"b2b_marketplace_backend/internal/quotes/handler"
	"b2b_marketplace_backend/internal/quotes/ports"
	"b2b_marketplace_backend/internal/quotes/repository"
	"b2b_marketplace_backend/internal/quotes/service"
	"b2b_marketplace_backend/platform/events"
	"b2b_marketplace_backend/platform/logger"
	"b2b_marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module backed by Postgres.
func NewModule(pool *pgxpool.Pool, orders ports.OrderCreator, eventBus events.Bus, val *validator.Validator, log *logger.Logger, settings service.Settings) *Module {
	return NewModuleWithStore(repository.New(pool), orders, eventBus, val, log, settings)
}

// NewModuleWithStore wires the module around an arbitrary store.
func NewModuleWithStore(store repository.Store, orders ports.OrderCreator, eventBus events.Bus, val *validator.Validator, log *logger.Logger, settings service.Settings) *Module {
	svc := service.New(store, orders, eventBus, log, settings)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotes := ctx.Protected.Group("/quotes")
	m.handler.RegisterRoutes(quotes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
