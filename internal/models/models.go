package models

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Location identifies one monitored district. The triple is immutable for
// the life of a run and drives both the API query string and the storage
// partition key.
type Location struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	District string `json:"district"`
}

// Query returns the free-text location string the weather API expects.
func (l Location) Query() string {
	return fmt.Sprintf("%s, %s, %s", l.District, l.City, l.Country)
}

func (l Location) String() string {
	return l.Query()
}

// Slug normalizes a name component for use in partition paths:
// lowercase, spaces replaced with hyphens.
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

// LoadLocations reads a JSON array of locations so the district list can be
// swapped without a rebuild. Callers fall back to DefaultLocations when no
// file is given.
func LoadLocations(path string) ([]Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	var locations []Location
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("parse locations: %w", err)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("locations file %s is empty", path)
	}
	return locations, nil
}

// DefaultLocations is the district list ingestion runs against when no
// locations file is configured: the districts of Lima, Peru.
var DefaultLocations = limaDistricts()

func limaDistricts() []Location {
	districts := []string{
		"Ancon", "Ate", "Barranco", "Brena", "Carabayllo", "Chaclacayo", "Chorrillos",
		"Cieneguilla", "Comas", "El Agustino", "Independencia", "Jesus Maria", "La Molina",
		"La Victoria", "Lima", "Lince", "Los Olivos", "Lurigancho", "Lurin", "Magdalena del Mar",
		"Miraflores", "Pachacamac", "Pucusana", "Pueblo Libre", "Puente Piedra", "Punta Hermosa",
		"Punta Negra", "Rimac", "San Bartolo", "San Borja", "San Isidro", "San Juan de Lurigancho",
		"San Juan de Miraflores", "San Luis", "San Martin de Porres", "San Miguel", "Santa Anita",
		"Santa Maria del Mar", "Santa Rosa", "Santiago de Surco", "Surquillo", "Villa El Salvador",
		"Villa Maria del Triunfo",
	}
	locations := make([]Location, 0, len(districts))
	for _, d := range districts {
		locations = append(locations, Location{Country: "Peru", City: "Lima", District: d})
	}
	return locations
}

// Stage names the step of the fetch-write-upload unit a location reached.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageWrite  Stage = "write"
	StageUpload Stage = "upload"
	StageDone   Stage = "done"
)

// Result is the per-location outcome of one ingestion pass. Err is nil when
// the location made it through upload confirmation.
type Result struct {
	Location Location
	Stage    Stage
	Err      error
}

// OK reports whether the location completed the full unit.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary collects per-location results for one run so callers can assert on
// outcomes programmatically instead of parsing logs.
type Summary struct {
	Results []Result
}

// Add appends a result.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

// Succeeded returns the number of locations that completed the full unit.
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of locations that failed at any stage.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed of %d locations",
		s.Succeeded(), s.Failed(), len(s.Results))
}
