package lookup

import (
	"net/http"
	"time"

	"rideshare_backend/internal/autocomplete"
	apphttp "rideshare_backend/internal/http"
	"rideshare_backend/internal/lookup/dataset"
	"rideshare_backend/platform/config"
	"rideshare_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Module wires the suggestion service and its HTTP routes.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule builds the service from configuration. rdb may be nil, in which
// case remote results are not cached.
func NewModule(cfg config.LookupConfig, rdb redis.Cmdable, log *logger.Logger) *Module {
	bundle := dataset.MustLoad()
	client := &http.Client{Timeout: cfg.GetLookupTimeout()}

	svc := NewService(log).
		WithDataset(KindAddresses, bundle.Addresses).
		WithDataset(KindVehicleMakes, bundle.Makes).
		WithDataset(KindVehicleModels, bundle.Models).
		WithDataset(KindCountries, bundle.Countries)

	if cfg.IsAddressLookupEnabled() {
		addresses := NewNominatimSource(NominatimOptions{
			BaseURL:      cfg.GetNominatimURL(),
			UserAgent:    cfg.GetNominatimUserAgent(),
			CountryCodes: cfg.GetNominatimCountryCodes(),
			RatePerSec:   cfg.GetLookupRatePerSecond(),
			Client:       client,
		}, log)
		svc.WithSource(KindAddresses, cached("addresses", addresses, rdb, cfg.GetLookupCacheTTL(), log))
	}
	if cfg.IsVehicleLookupEnabled() {
		makes := NewMakeSource(cfg.GetVPICURL(), client, log)
		models := NewModelSource(cfg.GetVPICURL(), client, log)
		svc.WithSource(KindVehicleMakes, cached("vehicle-makes", makes, rdb, cfg.GetLookupCacheTTL(), log))
		svc.WithSource(KindVehicleModels, cached("vehicle-models", models, rdb, cfg.GetLookupCacheTTL(), log))
	}

	log.Info("lookup service configured",
		"addressRemote", cfg.IsAddressLookupEnabled(),
		"vehicleRemote", cfg.IsVehicleLookupEnabled(),
		"cache", rdb != nil,
	)

	return &Module{handler: NewHandler(svc), service: svc}
}

func cached(name string, src autocomplete.RemoteSource, rdb redis.Cmdable, ttl time.Duration, log *logger.Logger) autocomplete.RemoteSource {
	if rdb == nil || ttl <= 0 {
		return src
	}
	return NewCachedSource(name, src, rdb, ttl, log)
}

// Service exposes the suggestion service for in-process consumers.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Name() string {
	return "lookup"
}

// RegisterRoutes mounts the public lookup routes. They are rate limited per
// client instead of authenticated, so sign-up forms can use them.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/lookup")
	if ctx.LookupRateLimiter != nil {
		group.Use(ctx.LookupRateLimiter.RateLimit())
	}
	group.GET("/:kind", m.handler.Suggest)
	group.GET("/:kind/details", m.handler.Details)
}

var _ apphttp.Module = (*Module)(nil)
