// Package vehicles provides driver vehicle registration and the admin review queue.
package vehicles

import (
	"rideshare_backend/internal/adapters/storage"
	"rideshare_backend/internal/events"
	apphttp "rideshare_backend/internal/http"
	"rideshare_backend/internal/vehicles/handler"
	"rideshare_backend/internal/vehicles/repository"
	"rideshare_backend/internal/vehicles/service"
	"rideshare_backend/platform/logger"
	"rideshare_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the vehicles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the module over Postgres. storageSvc may be nil when object
// storage is disabled; document uploads then answer 503.
func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, bucket string, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	return NewModuleWithStore(repository.New(pool), storageSvc, bucket, eventBus, val, log)
}

func NewModuleWithStore(store repository.Store, storageSvc storage.StorageService, bucket string, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, storageSvc, bucket, eventBus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "vehicles"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterDriverRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
