package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the access service depends on.
type Store interface {
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
	Grant(ctx context.Context, userID uuid.UUID, role string, grantedBy *uuid.UUID) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, role string) error
	ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	ListByRole(ctx context.Context, role string) ([]Grant, error)
	CountRole(ctx context.Context, role string) (int, error)
}

var _ Store = (*Repository)(nil)
