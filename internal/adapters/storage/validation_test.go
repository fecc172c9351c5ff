package storage

import (
	"strings"
	"testing"

	"rideshare_backend/platform/apperr"
)

func TestValidateUpload(t *testing.T) {
	const maxSize = 10 << 20

	cases := []struct {
		name        string
		contentType string
		size        int64
		ok          bool
	}{
		{name: "pdf", contentType: "application/pdf", size: 1024, ok: true},
		{name: "jpeg with params", contentType: "Image/JPEG; charset=binary", size: 1024, ok: true},
		{name: "video rejected", contentType: "video/mp4", size: 1024, ok: false},
		{name: "empty file", contentType: "image/png", size: 0, ok: false},
		{name: "too large", contentType: "image/png", size: maxSize + 1, ok: false},
	}

	for _, tc := range cases {
		err := validateUpload(tc.contentType, tc.size, maxSize)
		if (err == nil) != tc.ok {
			t.Fatalf("%s: expected ok=%v, got %v", tc.name, tc.ok, err)
		}
		if err != nil && !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestObjectKeyIsScopedAndUnique(t *testing.T) {
	a := objectKey("vehicles/abc", "../../etc/passwd")
	b := objectKey("vehicles/abc", "../../etc/passwd")

	if a == b {
		t.Fatal("expected random suffix to make keys unique")
	}
	if !strings.HasPrefix(a, "vehicles/abc/passwd_") {
		t.Fatalf("expected key to stay inside the folder, got %q", a)
	}
}

func TestCleanFileName(t *testing.T) {
	cases := map[string]string{
		"talon înmatriculare.pdf": "talon__nmatriculare.pdf",
		`C:\scans\id.png`:         "id.png",
		"...":                     "document",
	}
	for in, want := range cases {
		if got := cleanFileName(in); got != want {
			t.Fatalf("cleanFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
