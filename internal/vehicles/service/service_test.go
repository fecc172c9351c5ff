package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rideshare_backend/internal/adapters/storage"
	"rideshare_backend/internal/events"
	"rideshare_backend/internal/vehicles/repository"
	"rideshare_backend/platform/apperr"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]repository.Vehicle
	docs     []repository.Document
}

func newMemoryStore() *memoryStore {
	return &memoryStore{vehicles: make(map[uuid.UUID]repository.Vehicle)}
}

func (m *memoryStore) Create(_ context.Context, v repository.Vehicle) (repository.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vehicles {
		if existing.PlateNumber == v.PlateNumber && existing.RegistrationCountry == v.RegistrationCountry {
			return repository.Vehicle{}, repository.ErrDuplicatePlate
		}
	}
	v.ID = uuid.New()
	v.Status = repository.StatusPending
	v.CreatedAt = time.Now()
	m.vehicles[v.ID] = v
	return v, nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (repository.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return repository.Vehicle{}, repository.ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]repository.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryStore) ListByStatus(_ context.Context, status string, limit, _ int) ([]repository.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.Status == status && len(out) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryStore) Review(_ context.Context, id uuid.UUID, status string, note *string, reviewerID uuid.UUID) (repository.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return repository.Vehicle{}, repository.ErrNotFound
	}
	if v.Status != repository.StatusPending {
		return repository.Vehicle{}, repository.ErrNotPending
	}
	v.Status, v.ReviewNote, v.ReviewedBy = status, note, &reviewerID
	m.vehicles[id] = v
	return v, nil
}

func (m *memoryStore) AddDocument(_ context.Context, d repository.Document) (repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.New()
	m.docs = append(m.docs, d)
	return d, nil
}

func (m *memoryStore) ListDocuments(_ context.Context, vehicleID uuid.UUID) ([]repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Document, 0)
	for _, d := range m.docs {
		if d.VehicleID == vehicleID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeStorage struct {
	folders []string
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, _, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	f.folders = append(f.folders, folder)
	return &storage.PresignedURL{URL: "https://minio.test/upload", FileKey: folder + "/" + fileName}, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.test/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeStorage) DeleteObject(context.Context, string, string) error  { return nil }
func (f *fakeStorage) EnsureBucketExists(context.Context, string) error    { return nil }
func (f *fakeStorage) ValidateUpload(contentType string, size int64) error {
	if contentType != "application/pdf" || size <= 0 {
		return apperr.Validation("unsupported upload")
	}
	return nil
}

type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *captureBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func validInput() SubmitInput {
	return SubmitInput{
		Make:                "Toyota",
		Model:               "Corolla",
		Year:                2019,
		Color:               "Alb",
		PlateNumber:         "  abc   123 ",
		RegistrationCountry: "md",
		Seats:               4,
		OwnerPhone:          "069 123 456",
	}
}

func TestSubmitNormalizesAndPublishes(t *testing.T) {
	bus := &captureBus{}
	svc := New(newMemoryStore(), nil, "vehicle-documents", bus, nil)
	owner := uuid.New()

	v, err := svc.Submit(context.Background(), owner, "driver@example.com", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if v.PlateNumber != "ABC 123" || v.RegistrationCountry != "MD" {
		t.Fatalf("unexpected normalization %q/%q", v.PlateNumber, v.RegistrationCountry)
	}
	if v.OwnerPhone != "+37369123456" {
		t.Fatalf("expected E.164 phone, got %q", v.OwnerPhone)
	}
	if v.Status != repository.StatusPending {
		t.Fatalf("expected pending status, got %q", v.Status)
	}
	if len(bus.events) != 1 || bus.events[0].EventName() != "vehicles.submitted" {
		t.Fatalf("expected a submitted event, got %+v", bus.events)
	}
}

func TestSubmitAcceptsFreeTextMakeAndModel(t *testing.T) {
	svc := New(newMemoryStore(), nil, "", nil, nil)
	in := validInput()
	in.Make, in.Model, in.OwnerPhone = "Moskvitch", "<b>412</b>", ""

	v, err := svc.Submit(context.Background(), uuid.New(), "", in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if v.Make != "Moskvitch" || v.Model != "412" {
		t.Fatalf("expected sanitized free text, got %q %q", v.Make, v.Model)
	}
}

func TestSubmitRejectsDuplicatePlateAndBadPhone(t *testing.T) {
	svc := New(newMemoryStore(), nil, "", nil, nil)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, uuid.New(), "", validInput()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(ctx, uuid.New(), "", validInput()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate plate, got %v", err)
	}

	in := validInput()
	in.PlateNumber, in.OwnerPhone = "XYZ 999", "12"
	if _, err := svc.Submit(ctx, uuid.New(), "", in); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for phone, got %v", err)
	}
}

func TestReviewFlow(t *testing.T) {
	bus := &captureBus{}
	svc := New(newMemoryStore(), nil, "", bus, nil)
	ctx := context.Background()
	reviewer := uuid.New()

	v, err := svc.Submit(ctx, uuid.New(), "driver@example.com", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.Review(ctx, reviewer, v.ID, DecisionReject, "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected rejection without note to fail, got %v", err)
	}
	if _, err := svc.Review(ctx, reviewer, v.ID, "maybe", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected unknown decision to fail, got %v", err)
	}

	reviewed, err := svc.Review(ctx, reviewer, v.ID, DecisionReject, "Photo of the registration is unreadable")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != repository.StatusRejected {
		t.Fatalf("expected rejected, got %q", reviewed.Status)
	}

	last, ok := bus.events[len(bus.events)-1].(events.VehicleReviewed)
	if !ok {
		t.Fatalf("expected VehicleReviewed, got %T", bus.events[len(bus.events)-1])
	}
	if last.OwnerEmail != "driver@example.com" || last.Vehicle != "2019 Toyota Corolla" || last.Note == "" {
		t.Fatalf("unexpected event %+v", last)
	}

	if _, err := svc.Review(ctx, reviewer, v.ID, DecisionApprove, ""); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected second review to conflict, got %v", err)
	}
	if _, err := svc.Review(ctx, reviewer, uuid.New(), DecisionApprove, ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPresignDocumentIsOwnerScoped(t *testing.T) {
	files := &fakeStorage{}
	svc := New(newMemoryStore(), files, "vehicle-documents", nil, nil)
	ctx := context.Background()
	owner := uuid.New()

	v, err := svc.Submit(ctx, owner, "", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	upload := DocumentUpload{FileName: "talon.pdf", ContentType: "application/pdf", SizeBytes: 2048}
	if _, err := svc.PresignDocument(ctx, uuid.New(), v.ID, upload); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected another user's vehicle to look missing, got %v", err)
	}

	got, err := svc.PresignDocument(ctx, owner, v.ID, upload)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if got.Upload.URL == "" || got.Document.FileKey != "vehicles/"+v.ID.String()+"/talon.pdf" {
		t.Fatalf("unexpected presign result %+v", got)
	}

	upload.ContentType = "video/mp4"
	if _, err := svc.PresignDocument(ctx, owner, v.ID, upload); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected content type rejection, got %v", err)
	}

	docs, links, err := svc.DocumentLinks(ctx, v.ID)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(docs) != 1 || links[docs[0].ID] == nil {
		t.Fatalf("expected one signed document, got %d docs and %d links", len(docs), len(links))
	}
}

func TestPresignWithoutStorageIsUnavailable(t *testing.T) {
	svc := New(newMemoryStore(), nil, "", nil, nil)
	_, err := svc.PresignDocument(context.Background(), uuid.New(), uuid.New(), DocumentUpload{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestListByStatusValidates(t *testing.T) {
	svc := New(newMemoryStore(), nil, "", nil, nil)
	if _, err := svc.ListByStatus(context.Background(), "archived", 10, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := svc.ListByStatus(context.Background(), repository.StatusPending, 0, -5)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty pending list, got %v %v", got, err)
	}
}
