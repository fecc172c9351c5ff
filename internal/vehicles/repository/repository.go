package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicatePlate = errors.New("plate number already registered")
	ErrNotPending     = errors.New("vehicle is not pending review")
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const uniqueViolation = "23505"

type Vehicle struct {
	ID                  uuid.UUID
	OwnerID             uuid.UUID
	OwnerEmail          string
	OwnerPhone          string
	Make                string
	Model               string
	Year                int
	Color               string
	PlateNumber         string
	RegistrationCountry string
	Seats               int
	Status              string
	ReviewNote          *string
	ReviewedBy          *uuid.UUID
	ReviewedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Document struct {
	ID          uuid.UUID
	VehicleID   uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

const vehicleColumns = `
	id, owner_id, owner_email, owner_phone, make, model, year, color,
	plate_number, registration_country, seats, status,
	review_note, reviewed_by, reviewed_at, created_at, updated_at`

const insertVehicleQuery = `
	INSERT INTO vehicles (
		owner_id, owner_email, owner_phone, make, model, year, color,
		plate_number, registration_country, seats
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING` + vehicleColumns

const getVehicleQuery = `SELECT` + vehicleColumns + `
	FROM vehicles WHERE id = $1`

const listByOwnerQuery = `SELECT` + vehicleColumns + `
	FROM vehicles
	WHERE owner_id = $1
	ORDER BY created_at DESC`

const listByStatusQuery = `SELECT` + vehicleColumns + `
	FROM vehicles
	WHERE status = $1
	ORDER BY created_at ASC
	LIMIT $2 OFFSET $3`

const reviewVehicleQuery = `
	UPDATE vehicles
	SET status = $2, review_note = $3, reviewed_by = $4, reviewed_at = now(), updated_at = now()
	WHERE id = $1 AND status = 'pending'
	RETURNING` + vehicleColumns

const insertDocumentQuery = `
	INSERT INTO vehicle_documents (vehicle_id, file_key, file_name, content_type, size_bytes)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, vehicle_id, file_key, file_name, content_type, size_bytes, created_at`

const listDocumentsQuery = `
	SELECT id, vehicle_id, file_key, file_name, content_type, size_bytes, created_at
	FROM vehicle_documents
	WHERE vehicle_id = $1
	ORDER BY created_at ASC`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, v Vehicle) (Vehicle, error) {
	row := r.pool.QueryRow(ctx, insertVehicleQuery,
		v.OwnerID, v.OwnerEmail, v.OwnerPhone, v.Make, v.Model, v.Year, v.Color,
		v.PlateNumber, v.RegistrationCountry, v.Seats,
	)
	created, err := scanVehicle(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Vehicle{}, ErrDuplicatePlate
		}
		return Vehicle{}, err
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	v, err := scanVehicle(r.pool.QueryRow(ctx, getVehicleQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	return v, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, listByOwnerQuery, ownerID)
	if err != nil {
		return nil, err
	}
	return collectVehicles(rows)
}

func (r *Repository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, listByStatusQuery, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectVehicles(rows)
}

// Review records a decision on a pending vehicle. A vehicle that was already
// reviewed yields ErrNotPending.
func (r *Repository) Review(ctx context.Context, id uuid.UUID, status string, note *string, reviewerID uuid.UUID) (Vehicle, error) {
	v, err := scanVehicle(r.pool.QueryRow(ctx, reviewVehicleQuery, id, status, note, reviewerID))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return Vehicle{}, getErr
		}
		return Vehicle{}, ErrNotPending
	}
	return v, err
}

func (r *Repository) AddDocument(ctx context.Context, d Document) (Document, error) {
	var out Document
	err := r.pool.QueryRow(ctx, insertDocumentQuery, d.VehicleID, d.FileKey, d.FileName, d.ContentType, d.SizeBytes).Scan(
		&out.ID, &out.VehicleID, &out.FileKey, &out.FileName, &out.ContentType, &out.SizeBytes, &out.CreatedAt,
	)
	return out, err
}

func (r *Repository) ListDocuments(ctx context.Context, vehicleID uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, listDocumentsQuery, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.VehicleID, &d.FileKey, &d.FileName, &d.ContentType, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.OwnerEmail, &v.OwnerPhone, &v.Make, &v.Model, &v.Year, &v.Color,
		&v.PlateNumber, &v.RegistrationCountry, &v.Seats, &v.Status,
		&v.ReviewNote, &v.ReviewedBy, &v.ReviewedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func collectVehicles(rows pgx.Rows) ([]Vehicle, error) {
	defer rows.Close()

	vehicles := make([]Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
