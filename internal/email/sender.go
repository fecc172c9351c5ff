// Package email renders and delivers transactional mail.
package email

import (
	"context"

	"rideshare_backend/platform/config"
	"rideshare_backend/platform/logger"
)

// VehicleReview is what the driver is told about a review decision.
type VehicleReview struct {
	DriverEmail string
	Vehicle     string
	PlateNumber string
	Approved    bool
	Note        string
	VehicleURL  string
}

type Sender interface {
	SendVehicleReviewEmail(ctx context.Context, review VehicleReview) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendVehicleReviewEmail(context.Context, VehicleReview) error {
	return nil
}

// NewSender returns an SMTP sender when email is enabled and a NoopSender otherwise.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		if log != nil {
			log.Info("email disabled, review emails will not be sent")
		}
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
