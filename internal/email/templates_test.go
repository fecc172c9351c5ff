package email

import (
	"context"
	"strings"
	"testing"
)

func TestVehicleReviewRejectedIncludesNote(t *testing.T) {
	subject, data := vehicleReviewContent(VehicleReview{
		Vehicle:     "2019 Toyota Corolla",
		PlateNumber: "ABC 123",
		Note:        "Registration <photo> is blurry",
		VehicleURL:  "https://app.example.com/vehicles/1",
	})
	if subject != "Your 2019 Toyota Corolla needs changes" {
		t.Fatalf("unexpected subject %q", subject)
	}

	html, err := renderEmailTemplate("vehicle_review.html", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Registration &lt;photo&gt; is blurry") {
		t.Fatal("expected escaped reviewer note in html body")
	}
	if !strings.Contains(html, "https://app.example.com/vehicles/1") || !strings.Contains(html, "Update your vehicle") {
		t.Fatal("expected call to action in html body")
	}
}

func TestVehicleReviewApprovedWithoutNote(t *testing.T) {
	subject, data := vehicleReviewContent(VehicleReview{Vehicle: "2018 Dacia Logan", PlateNumber: "CBD 123", Approved: true})
	if subject != "Your 2018 Dacia Logan is approved" {
		t.Fatalf("unexpected subject %q", subject)
	}

	html, err := renderEmailTemplate("vehicle_review.html", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "Reviewer note") || strings.Contains(html, "<a href") {
		t.Fatal("expected no note and no link")
	}

	text := vehicleReviewText(data)
	if !strings.HasPrefix(text, "You're ready to drive") || !strings.Contains(text, "CBD 123") {
		t.Fatalf("unexpected text body %q", text)
	}
}

func TestSMTPMessageHeaders(t *testing.T) {
	s := NewSMTPSender("localhost", 2525, "", "", "no-reply@example.com", "Rideshare")
	msg, err := s.buildMessage("driver@example.com", "Hello", "<p>hi</p>", "hi")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rcpts, err := msg.GetRecipients()
	if err != nil || len(rcpts) != 1 || !strings.Contains(rcpts[0], "driver@example.com") {
		t.Fatalf("unexpected recipients %v (%v)", rcpts, err)
	}

	if _, err := s.buildMessage("not an address", "Hello", "", ""); err == nil {
		t.Fatal("expected invalid recipient to fail")
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).SendVehicleReviewEmail(context.Background(), VehicleReview{}); err != nil {
		t.Fatalf("noop: %v", err)
	}
}
