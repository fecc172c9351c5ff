// Package service holds the vehicle registration and review workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"rideshare_backend/internal/adapters/storage"
	"rideshare_backend/internal/events"
	"rideshare_backend/internal/vehicles/repository"
	"rideshare_backend/platform/apperr"
	"rideshare_backend/platform/logger"
	"rideshare_backend/platform/phone"
	"rideshare_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"

	defaultPageSize = 50
	maxPageSize     = 200
)

// SubmitInput is a driver's vehicle registration. Make and model usually come
// from an autocomplete selection but free text is accepted.
type SubmitInput struct {
	Make                string
	Model               string
	Year                int
	Color               string
	PlateNumber         string
	RegistrationCountry string
	Seats               int
	OwnerPhone          string
}

// DocumentUpload describes a file the driver is about to upload.
type DocumentUpload struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// PresignedDocument is a recorded document plus the URL to upload it to.
type PresignedDocument struct {
	Document repository.Document
	Upload   *storage.PresignedURL
}

type Service struct {
	store    repository.Store
	storage  storage.StorageService
	bucket   string
	eventBus events.Bus
	log      *logger.Logger
}

func New(store repository.Store, storageSvc storage.StorageService, bucket string, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: store, storage: storageSvc, bucket: bucket, eventBus: eventBus, log: log}
}

func (s *Service) Submit(ctx context.Context, ownerID uuid.UUID, ownerEmail string, in SubmitInput) (repository.Vehicle, error) {
	v := repository.Vehicle{
		OwnerID:             ownerID,
		OwnerEmail:          strings.TrimSpace(ownerEmail),
		Make:                sanitize.Text(in.Make),
		Model:               sanitize.Text(in.Model),
		Year:                in.Year,
		Color:               sanitize.Text(in.Color),
		PlateNumber:         NormalizePlate(in.PlateNumber),
		RegistrationCountry: strings.ToUpper(strings.TrimSpace(in.RegistrationCountry)),
		Seats:               in.Seats,
	}
	if v.Make == "" || v.Model == "" {
		return repository.Vehicle{}, apperr.Validation("make and model are required")
	}
	if in.OwnerPhone != "" {
		region := v.RegistrationCountry
		if region == "" {
			region = phone.DefaultRegion
		}
		if !phone.IsValid(in.OwnerPhone, region) {
			return repository.Vehicle{}, apperr.Validation("invalid phone number")
		}
		v.OwnerPhone = phone.NormalizeE164ForRegion(in.OwnerPhone, region)
	}

	created, err := s.store.Create(ctx, v)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePlate) {
			return repository.Vehicle{}, apperr.Conflict("a vehicle with this plate number is already registered")
		}
		return repository.Vehicle{}, apperr.Wrap(apperr.KindInternal, "failed to save vehicle", err)
	}

	s.log.WithContext(ctx).Info("vehicle submitted", "vehicleId", created.ID, "ownerId", ownerID)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.VehicleSubmitted{
			BaseEvent:   events.NewBaseEvent(),
			VehicleID:   created.ID,
			OwnerID:     ownerID,
			PlateNumber: created.PlateNumber,
		})
	}
	return created, nil
}

func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]repository.Vehicle, error) {
	vehicles, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list vehicles", err)
	}
	return vehicles, nil
}

// GetOwned returns a vehicle only if ownerID owns it. Someone else's vehicle
// is reported as not found.
func (s *Service) GetOwned(ctx context.Context, ownerID, vehicleID uuid.UUID) (repository.Vehicle, error) {
	v, err := s.get(ctx, vehicleID)
	if err != nil {
		return repository.Vehicle{}, err
	}
	if v.OwnerID != ownerID {
		return repository.Vehicle{}, apperr.NotFound("vehicle not found")
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, vehicleID uuid.UUID) (repository.Vehicle, error) {
	return s.get(ctx, vehicleID)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]repository.Vehicle, error) {
	switch status {
	case repository.StatusPending, repository.StatusApproved, repository.StatusRejected:
	default:
		return nil, apperr.Validation("unknown status")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	vehicles, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list vehicles", err)
	}
	return vehicles, nil
}

// Review approves or rejects a pending vehicle and notifies the owner.
// A rejection needs a note the driver can act on.
func (s *Service) Review(ctx context.Context, reviewerID, vehicleID uuid.UUID, decision, note string) (repository.Vehicle, error) {
	var status string
	switch decision {
	case DecisionApprove:
		status = repository.StatusApproved
	case DecisionReject:
		status = repository.StatusRejected
	default:
		return repository.Vehicle{}, apperr.Validation("decision must be approve or reject")
	}

	note = sanitize.Note(note)
	if status == repository.StatusRejected && note == "" {
		return repository.Vehicle{}, apperr.Validation("a rejection needs a note")
	}
	var notePtr *string
	if note != "" {
		notePtr = &note
	}

	v, err := s.store.Review(ctx, vehicleID, status, notePtr, reviewerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return repository.Vehicle{}, apperr.NotFound("vehicle not found")
		case errors.Is(err, repository.ErrNotPending):
			return repository.Vehicle{}, apperr.Conflict("vehicle has already been reviewed")
		default:
			return repository.Vehicle{}, apperr.Wrap(apperr.KindInternal, "failed to record review", err)
		}
	}

	s.log.WithContext(ctx).Info("vehicle reviewed", "vehicleId", v.ID, "status", v.Status, "reviewerId", reviewerID)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.VehicleReviewed{
			BaseEvent:   events.NewBaseEvent(),
			VehicleID:   v.ID,
			OwnerID:     v.OwnerID,
			OwnerEmail:  v.OwnerEmail,
			Vehicle:     DisplayName(v),
			PlateNumber: v.PlateNumber,
			Status:      v.Status,
			Note:        note,
			ReviewerID:  reviewerID,
		})
	}
	return v, nil
}

// PresignDocument records an expected upload for the owner's vehicle and
// returns where to PUT it.
func (s *Service) PresignDocument(ctx context.Context, ownerID, vehicleID uuid.UUID, in DocumentUpload) (PresignedDocument, error) {
	if s.storage == nil {
		return PresignedDocument{}, apperr.Unavailable("document storage is not configured")
	}
	if _, err := s.GetOwned(ctx, ownerID, vehicleID); err != nil {
		return PresignedDocument{}, err
	}
	if err := s.storage.ValidateUpload(in.ContentType, in.SizeBytes); err != nil {
		return PresignedDocument{}, err
	}

	folder := path.Join("vehicles", vehicleID.String())
	upload, err := s.storage.GenerateUploadURL(ctx, s.bucket, folder, in.FileName, in.ContentType, in.SizeBytes)
	if err != nil {
		return PresignedDocument{}, apperr.Wrap(apperr.KindUnavailable, "failed to prepare upload", err)
	}

	doc, err := s.store.AddDocument(ctx, repository.Document{
		VehicleID:   vehicleID,
		FileKey:     upload.FileKey,
		FileName:    sanitize.Text(in.FileName),
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
	})
	if err != nil {
		return PresignedDocument{}, apperr.Wrap(apperr.KindInternal, "failed to record document", err)
	}
	return PresignedDocument{Document: doc, Upload: upload}, nil
}

// DocumentLinks lists a vehicle's documents with short-lived download URLs.
func (s *Service) DocumentLinks(ctx context.Context, vehicleID uuid.UUID) ([]repository.Document, map[uuid.UUID]*storage.PresignedURL, error) {
	docs, err := s.store.ListDocuments(ctx, vehicleID)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "failed to list documents", err)
	}
	links := make(map[uuid.UUID]*storage.PresignedURL, len(docs))
	if s.storage == nil {
		return docs, links, nil
	}
	for _, d := range docs {
		link, err := s.storage.GenerateDownloadURL(ctx, s.bucket, d.FileKey)
		if err != nil {
			s.log.WithContext(ctx).Warn("failed to sign document download", "documentId", d.ID, "error", err)
			continue
		}
		links[d.ID] = link
	}
	return docs, links, nil
}

func (s *Service) get(ctx context.Context, vehicleID uuid.UUID) (repository.Vehicle, error) {
	v, err := s.store.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Vehicle{}, apperr.NotFound("vehicle not found")
		}
		return repository.Vehicle{}, apperr.Wrap(apperr.KindInternal, "failed to load vehicle", err)
	}
	return v, nil
}

// NormalizePlate upper-cases a plate and collapses its whitespace.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}

// DisplayName renders "2019 Toyota Corolla".
func DisplayName(v repository.Vehicle) string {
	return strings.TrimSpace(fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model))
}
