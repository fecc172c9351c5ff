// Package notification reacts to domain events by telling the people involved:
// review emails go out through the job queue and live updates go to open
// SSE streams. Domain modules only publish events.
package notification

import (
	"context"
	"strings"

	"rideshare_backend/internal/email"
	"rideshare_backend/internal/events"
	apphttp "rideshare_backend/internal/http"
	"rideshare_backend/internal/notification/sse"
	"rideshare_backend/internal/scheduler"
	"rideshare_backend/platform/config"
	"rideshare_backend/platform/logger"

	"github.com/google/uuid"
)

const statusApproved = "approved"

type Module struct {
	sender    email.Sender
	scheduler scheduler.ReviewEmailScheduler
	stream    *sse.Service
	cfg       config.NotificationConfig
	log       *logger.Logger
}

func New(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Module{
		sender: sender,
		stream: sse.New(log),
		cfg:    cfg,
		log:    log,
	}
}

// SetReviewEmailScheduler routes review emails through the job queue. Without
// one they are sent inline from the event handler.
func (m *Module) SetReviewEmailScheduler(s scheduler.ReviewEmailScheduler) {
	m.scheduler = s
}

func (m *Module) Stream() *sse.Service {
	return m.stream
}

func (m *Module) Name() string {
	return "notification"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/me/events", m.stream.Handler())
}

func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.VehicleReviewed{}.EventName(), m)
	bus.Subscribe(events.RoleGranted{}.EventName(), m)
}

func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.VehicleReviewed:
		return m.handleVehicleReviewed(ctx, e)
	case events.RoleGranted:
		return m.handleRoleGranted(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleVehicleReviewed(ctx context.Context, e events.VehicleReviewed) error {
	m.stream.Publish(e.OwnerID, sse.Event{
		ID:      e.EventID().String(),
		Type:    sse.EventVehicleReviewed,
		Message: e.Vehicle + " " + e.Status,
		Data: map[string]any{
			"vehicleId": e.VehicleID,
			"status":    e.Status,
			"note":      e.Note,
		},
	})

	payload := scheduler.VehicleReviewEmailPayload{
		VehicleID:   e.VehicleID.String(),
		DriverEmail: strings.TrimSpace(e.OwnerEmail),
		Vehicle:     e.Vehicle,
		PlateNumber: e.PlateNumber,
		Status:      e.Status,
		Note:        e.Note,
	}
	if payload.DriverEmail == "" {
		m.log.Info("review email skipped, driver has no email", "vehicleId", e.VehicleID)
		return nil
	}

	if m.scheduler != nil {
		err := m.scheduler.EnqueueVehicleReviewEmail(ctx, payload)
		if err == nil {
			return nil
		}
		m.log.Warn("failed to queue review email, sending inline", "vehicleId", e.VehicleID, "error", err)
	}
	return m.DeliverVehicleReviewEmail(ctx, payload)
}

func (m *Module) handleRoleGranted(_ context.Context, e events.RoleGranted) error {
	m.stream.Publish(e.UserID, sse.Event{
		ID:      e.EventID().String(),
		Type:    sse.EventRoleGranted,
		Message: "role " + e.Role + " granted",
		Data:    map[string]any{"role": e.Role},
	})
	return nil
}

// DeliverVehicleReviewEmail renders and sends a queued review email. The
// worker calls it for every vehicles.review_email task.
func (m *Module) DeliverVehicleReviewEmail(ctx context.Context, payload scheduler.VehicleReviewEmailPayload) error {
	err := m.sender.SendVehicleReviewEmail(ctx, email.VehicleReview{
		DriverEmail: payload.DriverEmail,
		Vehicle:     payload.Vehicle,
		PlateNumber: payload.PlateNumber,
		Approved:    payload.Status == statusApproved,
		Note:        payload.Note,
		VehicleURL:  m.vehicleURL(payload.VehicleID),
	})
	if err != nil {
		m.log.Error("failed to send review email", "vehicleId", payload.VehicleID, "error", err)
		return err
	}
	m.log.Info("review email sent", "vehicleId", payload.VehicleID, "status", payload.Status)
	return nil
}

func (m *Module) vehicleURL(vehicleID string) string {
	if m.cfg == nil {
		return ""
	}
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	if base == "" {
		return ""
	}
	if _, err := uuid.Parse(vehicleID); err != nil {
		return base + "/vehicles"
	}
	return base + "/vehicles/" + vehicleID
}

var (
	_ apphttp.Module               = (*Module)(nil)
	_ events.Handler               = (*Module)(nil)
	_ scheduler.ReviewEmailHandler = (*Module)(nil)
)
