// Package http holds the contract between the router and the feature
// modules mounted on it.
package http

import (
	"context"

	"rideshare_backend/platform/config"
	"rideshare_backend/platform/httpkit"
	"rideshare_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is a feature area that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount routes on.
type RouterContext struct {
	// V1 is public. Protected requires a valid access token.
	V1        *gin.RouterGroup
	Protected *gin.RouterGroup
	// Admin additionally requires the admin role in the role store.
	Admin *gin.RouterGroup
	// LookupRateLimiter throttles the public suggestion endpoints.
	LookupRateLimiter *httpkit.IPRateLimiter
}

type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything main hands to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Roles   httpkit.RoleLookup
	Modules []Module
}
