package dataset

import (
	"testing"

	"rideshare_backend/internal/autocomplete"
)

func TestLoadParsesEveryDataset(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(b.Addresses) == 0 || len(b.Makes) == 0 || len(b.Countries) == 0 {
		t.Fatalf("expected non-empty datasets, got %d addresses, %d makes, %d countries",
			len(b.Addresses), len(b.Makes), len(b.Countries))
	}
}

func TestAddressesContainKievScenario(t *testing.T) {
	b := MustLoad()
	got := autocomplete.FilterLocal("kiev", b.Addresses)
	if len(got) != 1 {
		t.Fatalf("expected one Kiev address, got %d", len(got))
	}
	if got[0].Fields["address"] != "Strada Kiev 14" || got[0].Fields["city"] != "Chișinău" {
		t.Fatalf("unexpected payload %+v", got[0].Fields)
	}
	if got[0].IsRemote() {
		t.Fatal("bundled candidates must not carry remote ids")
	}
}

func TestModelsAreScopedByMake(t *testing.T) {
	b := MustLoad()

	if got := b.Models.Candidates(autocomplete.Scope{}); len(got) != 0 {
		t.Fatalf("expected no models without a make, got %d", len(got))
	}
	got := b.Models.Candidates(autocomplete.Scope{"make": "Dacia"})
	if len(got) == 0 || got[0].Label != "Logan" {
		t.Fatalf("expected Dacia models starting with Logan, got %+v", got)
	}
}

func TestCountriesCarryDialCodes(t *testing.T) {
	b := MustLoad()
	got := autocomplete.FilterLocal("moldova", b.Countries)
	if len(got) != 1 {
		t.Fatalf("expected Moldova, got %d matches", len(got))
	}
	if got[0].Fields["dialCode"] != "+373" || got[0].Fields["country"] != "MD" {
		t.Fatalf("unexpected payload %+v", got[0].Fields)
	}
}

func TestPeugeotModelsStayStrings(t *testing.T) {
	b := MustLoad()
	got := b.Models.Candidates(autocomplete.Scope{"make": "Peugeot"})
	if len(got) == 0 || got[0].Label != "308" {
		t.Fatalf("expected numeric model names preserved, got %+v", got)
	}
}
