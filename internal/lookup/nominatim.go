package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/platform/apperr"
	"rideshare_backend/platform/logger"

	"golang.org/x/time/rate"
)

const nominatimResultLimit = "6"

// NominatimSource suggests street addresses from an OSM Nominatim instance.
// Requests are throttled to the instance's usage policy.
type NominatimSource struct {
	baseURL      string
	userAgent    string
	countryCodes string
	client       *http.Client
	limiter      *rate.Limiter
	log          *logger.Logger
}

// NominatimOptions configures NominatimSource.
type NominatimOptions struct {
	BaseURL      string
	UserAgent    string
	// CountryCodes is the default comma-separated ISO restriction, e.g. "md,ro".
	CountryCodes string
	RatePerSec   float64
	Client       *http.Client
}

func NewNominatimSource(opts NominatimOptions, log *logger.Logger) *NominatimSource {
	if log == nil {
		log = logger.NewNop()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &NominatimSource{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		userAgent:    opts.UserAgent,
		countryCodes: opts.CountryCodes,
		client:       client,
		limiter:      rate.NewLimiter(limit, 1),
		log:          log,
	}
}

// Lookup runs a free-text search. A country scope overrides the configured
// country restriction.
func (s *NominatimSource) Lookup(ctx context.Context, query string, scope autocomplete.Scope) ([]autocomplete.Candidate, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "jsonv2")
	params.Add("addressdetails", "1")
	params.Add("limit", nominatimResultLimit)
	if codes := s.countries(scope); codes != "" {
		params.Add("countrycodes", codes)
	}

	var places []nominatimPlace
	if err := s.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}

	candidates := make([]autocomplete.Candidate, 0, len(places))
	for _, place := range places {
		candidate, ok := buildCandidate(place)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// ResolveDetails fetches one place by its OSM reference (e.g. "W123").
func (s *NominatimSource) ResolveDetails(ctx context.Context, ref string) (autocomplete.Fields, error) {
	if !validOSMRef(ref) {
		return nil, apperr.Validation("invalid place reference")
	}

	params := url.Values{}
	params.Add("osm_ids", ref)
	params.Add("format", "jsonv2")
	params.Add("addressdetails", "1")

	var places []nominatimPlace
	if err := s.get(ctx, "/lookup", params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, apperr.NotFound("place not found")
	}
	return buildFields(places[0]), nil
}

func (s *NominatimSource) countries(scope autocomplete.Scope) string {
	if c := strings.TrimSpace(scope[ScopeCountry]); c != "" {
		return strings.ToLower(c)
	}
	return s.countryCodes
}

func (s *NominatimSource) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("nominatim request failed", "error", err)
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("nominatim upstream error", "status", resp.StatusCode)
		return fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		s.log.Error("failed to decode nominatim payload", "error", err)
		return err
	}
	return nil
}

func buildCandidate(place nominatimPlace) (autocomplete.Candidate, bool) {
	fields := buildFields(place)
	if fields["address"] == "" || fields["city"] == "" {
		return autocomplete.Candidate{}, false
	}

	ref := osmRef(place)
	id := ref
	if id == "" {
		id = "place:" + strconv.FormatInt(place.PlaceID, 10)
	}

	return autocomplete.Candidate{
		ID:         id,
		Label:      buildLabel(fields),
		Secondary:  strings.TrimSpace(strings.Trim(fields["city"]+", "+place.Address.Country, ", ")),
		DetailsRef: ref,
		Fields:     fields,
	}, true
}

func buildFields(place nominatimPlace) autocomplete.Fields {
	street := place.Address.Road
	if street == "" {
		street = place.Address.Pedestrian
	}
	address := street
	if street != "" && place.Address.HouseNumber != "" {
		address = street + " " + place.Address.HouseNumber
	}

	return autocomplete.Fields{
		"address": address,
		"city":    pickCity(place.Address),
		"zipCode": place.Address.Postcode,
		"country": strings.ToUpper(place.Address.CountryCode),
		"lat":     place.Lat,
		"lon":     place.Lon,
	}
}

func pickCity(address nominatimAddress) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	if address.Municipality != "" {
		return address.Municipality
	}
	return address.Hamlet
}

func buildLabel(fields autocomplete.Fields) string {
	parts := []string{fields["address"], ","}
	if fields["zipCode"] != "" {
		parts = append(parts, fields["zipCode"])
	}
	parts = append(parts, fields["city"])

	label := strings.Join(parts, " ")
	label = strings.ReplaceAll(label, " ,", ",")
	return strings.TrimSpace(label)
}

// osmRef builds the "N123"/"W123"/"R123" form the lookup endpoint expects.
func osmRef(place nominatimPlace) string {
	if place.OSMID == 0 || place.OSMType == "" {
		return ""
	}
	prefix := strings.ToUpper(place.OSMType[:1])
	return prefix + strconv.FormatInt(place.OSMID, 10)
}

func validOSMRef(ref string) bool {
	if len(ref) < 2 {
		return false
	}
	switch ref[0] {
	case 'N', 'W', 'R':
	default:
		return false
	}
	_, err := strconv.ParseInt(ref[1:], 10, 64)
	return err == nil
}
