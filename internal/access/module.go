// Package access provides the role store and the admin routes that manage it.
package access

import (
	"rideshare_backend/internal/access/handler"
	"rideshare_backend/internal/access/repository"
	"rideshare_backend/internal/access/service"
	"rideshare_backend/internal/events"
	apphttp "rideshare_backend/internal/http"
	"rideshare_backend/platform/logger"
	"rideshare_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the access bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	return NewModuleWithStore(repository.New(pool), eventBus, val, log)
}

// NewModuleWithStore builds the module over any role store.
func NewModuleWithStore(store repository.Store, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, eventBus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "access"
}

// Service returns the role service. It also serves as the router's role lookup.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/me/roles", m.handler.GetMyRoles)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
