package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the vehicle service depends on.
type Store interface {
	Create(ctx context.Context, v Vehicle) (Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (Vehicle, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Vehicle, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Vehicle, error)
	Review(ctx context.Context, id uuid.UUID, status string, note *string, reviewerID uuid.UUID) (Vehicle, error)
	AddDocument(ctx context.Context, d Document) (Document, error)
	ListDocuments(ctx context.Context, vehicleID uuid.UUID) ([]Document, error)
}

var _ Store = (*Repository)(nil)
