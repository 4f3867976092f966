package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocationQuery(t *testing.T) {
	loc := Location{Country: "Peru", City: "Lima", District: "Miraflores"}
	if got, want := loc.Query(), "Miraflores, Lima, Peru"; got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Peru", "peru"},
		{"Lima", "lima"},
		{"Magdalena del Mar", "magdalena-del-mar"},
		{"San Juan de Lurigancho", "san-juan-de-lurigancho"},
		{"already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLocations(t *testing.T) {
	if len(DefaultLocations) != 43 {
		t.Fatalf("len(DefaultLocations) = %d, want 43", len(DefaultLocations))
	}
	for _, loc := range DefaultLocations {
		if loc.Country != "Peru" || loc.City != "Lima" {
			t.Errorf("unexpected location %+v", loc)
		}
		if loc.District == "" {
			t.Error("empty district in default list")
		}
	}
}

func TestLoadLocations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.json")
	content := `[
		{"country": "Peru", "city": "Arequipa", "district": "Cayma"},
		{"country": "Peru", "city": "Arequipa", "district": "Yanahuara"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	locations, err := LoadLocations(path)
	if err != nil {
		t.Fatalf("LoadLocations: %v", err)
	}
	if len(locations) != 2 {
		t.Fatalf("len(locations) = %d, want 2", len(locations))
	}
	if locations[0].District != "Cayma" {
		t.Errorf("District = %q, want Cayma", locations[0].District)
	}
}

func TestLoadLocationsErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadLocations(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLocations(empty); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestSummaryCounts(t *testing.T) {
	var s Summary
	s.Add(Result{Location: DefaultLocations[0], Stage: StageDone})
	s.Add(Result{Location: DefaultLocations[1], Stage: StageFetch, Err: os.ErrDeadlineExceeded})
	s.Add(Result{Location: DefaultLocations[2], Stage: StageDone})

	if s.Succeeded() != 2 {
		t.Errorf("Succeeded() = %d, want 2", s.Succeeded())
	}
	if s.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", s.Failed())
	}
}
