package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type vehicleReviewEmailData struct {
	baseEmailData
	Vehicle     string
	PlateNumber string
	Approved    bool
	Note        string
}

func vehicleReviewContent(review VehicleReview) (string, vehicleReviewEmailData) {
	data := vehicleReviewEmailData{
		baseEmailData: baseEmailData{
			CTALabel: "Open your vehicle",
			CTAURL:   review.VehicleURL,
		},
		Vehicle:     review.Vehicle,
		PlateNumber: review.PlateNumber,
		Approved:    review.Approved,
		Note:        strings.TrimSpace(review.Note),
	}
	if review.Approved {
		data.Title = "Vehicle approved"
		data.Heading = "You're ready to drive"
		return fmt.Sprintf(subjectVehicleApprovedFmt, review.Vehicle), data
	}
	data.Title = "Vehicle needs changes"
	data.Heading = "Your vehicle was not approved"
	data.CTALabel = "Update your vehicle"
	return fmt.Sprintf(subjectVehicleRejectedFmt, review.Vehicle), data
}

func vehicleReviewText(data vehicleReviewEmailData) string {
	var b strings.Builder
	b.WriteString(data.Heading + "\n\n")
	fmt.Fprintf(&b, "%s (%s)\n", data.Vehicle, data.PlateNumber)
	if data.Note != "" {
		fmt.Fprintf(&b, "\nReviewer note: %s\n", data.Note)
	}
	if data.CTAURL != "" {
		fmt.Fprintf(&b, "\n%s: %s\n", data.CTALabel, data.CTAURL)
	}
	return b.String()
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
