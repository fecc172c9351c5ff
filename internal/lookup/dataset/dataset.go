// Package dataset holds the bundled local fallback lists served when a remote
// suggestion source is unavailable or finds nothing.
package dataset

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/platform/phone"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var files embed.FS

// Bundle groups the local datasets for every autocomplete use case.
type Bundle struct {
	Addresses autocomplete.StaticDataset
	Makes     autocomplete.StaticDataset
	Models    autocomplete.ScopedDataset
	Countries autocomplete.StaticDataset
}

type addressRecord struct {
	Label     string `yaml:"label"`
	Secondary string `yaml:"secondary"`
	City      string `yaml:"city"`
	Country   string `yaml:"country"`
	ZipCode   string `yaml:"zipCode"`
}

type vehicleRecord struct {
	Make   string   `yaml:"make"`
	Models []string `yaml:"models"`
}

type countryRecord struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

var (
	loadOnce sync.Once
	loaded   *Bundle
	loadErr  error
)

// Load parses the embedded datasets. The result is shared and must be
// treated as read-only.
func Load() (*Bundle, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse()
	})
	return loaded, loadErr
}

// MustLoad is Load for composition roots; the embedded files are part of the
// binary so a failure is a build defect.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic("load bundled datasets: " + err.Error())
	}
	return b
}

func parse() (*Bundle, error) {
	var addresses []addressRecord
	if err := decode("data/addresses.yaml", &addresses); err != nil {
		return nil, err
	}
	var vehicles []vehicleRecord
	if err := decode("data/vehicles.yaml", &vehicles); err != nil {
		return nil, err
	}
	var countries []countryRecord
	if err := decode("data/countries.yaml", &countries); err != nil {
		return nil, err
	}

	return &Bundle{
		Addresses: buildAddresses(addresses),
		Makes:     buildMakes(vehicles),
		Models:    buildModels(vehicles),
		Countries: buildCountries(countries),
	}, nil
}

func decode(name string, out any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func buildAddresses(records []addressRecord) autocomplete.StaticDataset {
	out := make(autocomplete.StaticDataset, 0, len(records))
	for _, r := range records {
		secondary := r.Secondary
		if secondary == "" {
			secondary = strings.TrimSpace(r.City + ", " + r.Country)
		}
		out = append(out, autocomplete.Candidate{
			Label:     r.Label,
			Secondary: secondary,
			Fields: autocomplete.Fields{
				"address": r.Label,
				"city":    r.City,
				"country": r.Country,
				"zipCode": r.ZipCode,
			},
		})
	}
	return out
}

func buildMakes(records []vehicleRecord) autocomplete.StaticDataset {
	out := make(autocomplete.StaticDataset, 0, len(records))
	for _, r := range records {
		out = append(out, autocomplete.Candidate{
			Label:  r.Make,
			Fields: autocomplete.Fields{"make": r.Make},
		})
	}
	return out
}

func buildModels(records []vehicleRecord) autocomplete.ScopedDataset {
	byMake := make(map[string][]autocomplete.Candidate, len(records))
	for _, r := range records {
		models := make([]autocomplete.Candidate, 0, len(r.Models))
		for _, m := range r.Models {
			models = append(models, autocomplete.Candidate{
				Label:     m,
				Secondary: r.Make,
				Fields:    autocomplete.Fields{"model": m},
			})
		}
		byMake[r.Make] = models
	}
	return autocomplete.ScopedDataset{Key: "make", ByScope: byMake}
}

func buildCountries(records []countryRecord) autocomplete.StaticDataset {
	out := make(autocomplete.StaticDataset, 0, len(records))
	for _, r := range records {
		dial := phone.DialCode(r.Code)
		out = append(out, autocomplete.Candidate{
			Label:     r.Name,
			Secondary: dial,
			Fields: autocomplete.Fields{
				"country":     r.Code,
				"countryName": r.Name,
				"dialCode":    dial,
			},
		})
	}
	return out
}
