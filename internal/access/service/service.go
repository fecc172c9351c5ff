// Package service decides who may do what. Privileges come from stored role
// assignments keyed by user id.
package service

import (
	"context"
	"errors"
	"slices"

	"rideshare_backend/internal/access/repository"
	"rideshare_backend/internal/events"
	"rideshare_backend/platform/apperr"
	"rideshare_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleDriver  = "driver"
	RoleSupport = "support"
)

// KnownRoles lists the roles that may be granted.
var KnownRoles = []string{RoleAdmin, RoleDriver, RoleSupport}

type Service struct {
	store    repository.Store
	eventBus events.Bus
	log      *logger.Logger
}

func New(store repository.Store, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: store, eventBus: eventBus, log: log}
}

// HasRole implements httpkit.RoleLookup.
func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	return s.store.HasRole(ctx, userID, role)
}

// IsAdmin reports whether the user holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.store.HasRole(ctx, userID, RoleAdmin)
}

func (s *Service) Grant(ctx context.Context, actorID, userID uuid.UUID, role string) error {
	if !slices.Contains(KnownRoles, role) {
		return apperr.Validation("unknown role")
	}

	created, err := s.store.Grant(ctx, userID, role, &actorID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to grant role", err)
	}
	if !created {
		return nil
	}

	s.log.WithContext(ctx).Info("role granted", "userId", userID, "role", role, "grantedBy", actorID)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.RoleGranted{
			BaseEvent: events.NewBaseEvent(),
			UserID:    userID,
			Role:      role,
			GrantedBy: actorID,
		})
	}
	return nil
}

// Revoke removes a role. An administrator cannot drop their own admin role,
// and the last administrator cannot be removed.
func (s *Service) Revoke(ctx context.Context, actorID, userID uuid.UUID, role string) error {
	if !slices.Contains(KnownRoles, role) {
		return apperr.Validation("unknown role")
	}

	if role == RoleAdmin {
		if actorID == userID {
			return apperr.Forbidden("cannot revoke your own admin role")
		}
		n, err := s.store.CountRole(ctx, RoleAdmin)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to count administrators", err)
		}
		if n <= 1 {
			return apperr.Conflict("cannot remove the last administrator")
		}
	}

	if err := s.store.Revoke(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("role assignment not found")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to revoke role", err)
	}

	s.log.WithContext(ctx).Info("role revoked", "userId", userID, "role", role, "revokedBy", actorID)
	return nil
}

func (s *Service) ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	roles, err := s.store.ListRoles(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list roles", err)
	}
	return roles, nil
}

func (s *Service) ListByRole(ctx context.Context, role string) ([]repository.Grant, error) {
	if !slices.Contains(KnownRoles, role) {
		return nil, apperr.Validation("unknown role")
	}
	grants, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list role assignments", err)
	}
	return grants, nil
}

// Bootstrap grants the admin role to userID when no administrator exists yet.
// It is a no-op once any administrator is stored.
func (s *Service) Bootstrap(ctx context.Context, userID uuid.UUID) error {
	n, err := s.store.CountRole(ctx, RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.store.Grant(ctx, userID, RoleAdmin, nil); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("bootstrap administrator granted", "userId", userID)
	return nil
}
