package lookup

import "rideshare_backend/internal/autocomplete"

// Kind names one autocomplete use case.
type Kind string

const (
	KindAddresses     Kind = "addresses"
	KindVehicleMakes  Kind = "vehicle-makes"
	KindVehicleModels Kind = "vehicle-models"
	KindCountries     Kind = "countries"
)

// Kinds lists every kind the service knows, in display order.
var Kinds = []Kind{KindAddresses, KindVehicleMakes, KindVehicleModels, KindCountries}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// SuggestRequest represents the query parameters from the frontend.
type SuggestRequest struct {
	Query   string `form:"q" binding:"max=200"`
	Country string `form:"country" binding:"omitempty,len=2,alpha"`
	Make    string `form:"make" binding:"max=100"`
}

// Scope converts the optional narrowing parameters into a lookup scope.
func (r SuggestRequest) Scope() autocomplete.Scope {
	scope := autocomplete.Scope{}
	if r.Country != "" {
		scope[ScopeCountry] = r.Country
	}
	if r.Make != "" {
		scope[ScopeMake] = r.Make
	}
	return scope
}

// DetailsRequest asks for the full payload behind a remote candidate.
type DetailsRequest struct {
	Ref string `form:"ref" binding:"required,max=64"`
}

// Scope keys understood by the sources.
const (
	ScopeCountry = "country"
	ScopeMake    = "make"
)

// Suggestions is the result of one suggest call. Source tells the client which
// list it is looking at; Readiness tells it whether the remote side is usable.
type Suggestions struct {
	Kind       Kind                     `json:"kind"`
	Query      string                   `json:"query"`
	Source     autocomplete.Origin      `json:"source"`
	Readiness  string                   `json:"readiness"`
	Candidates []autocomplete.Candidate `json:"candidates"`
}

// Details is the resolved payload of one remote candidate.
type Details struct {
	Kind   Kind                `json:"kind"`
	Ref    string              `json:"ref"`
	Fields autocomplete.Fields `json:"fields"`
}

type nominatimAddress struct {
	Road         string `json:"road"`
	Pedestrian   string `json:"pedestrian"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// nominatimPlace mirrors the relevant parts of the OSM search and lookup payloads.
type nominatimPlace struct {
	PlaceID     int64            `json:"place_id"`
	OSMType     string           `json:"osm_type"`
	OSMID       int64            `json:"osm_id"`
	DisplayName string           `json:"display_name"`
	Name        string           `json:"name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}

type vpicMakesResponse struct {
	Count   int        `json:"Count"`
	Results []vpicMake `json:"Results"`
}

type vpicMake struct {
	MakeID   int    `json:"MakeId"`
	MakeName string `json:"MakeName"`
}

type vpicModelsResponse struct {
	Count   int         `json:"Count"`
	Results []vpicModel `json:"Results"`
}

type vpicModel struct {
	MakeID    int    `json:"Make_ID"`
	MakeName  string `json:"Make_Name"`
	ModelID   int    `json:"Model_ID"`
	ModelName string `json:"Model_Name"`
}
