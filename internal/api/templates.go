package api

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*
var templateFS embed.FS

type templates = *template.Template

// newTemplates parses the page templates with the chart helpers.
func newTemplates() templates {
	funcs := template.FuncMap{
		"fmt1": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		"fmt2": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"aqiColor": aqiColor,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// aqiColor maps a US EPA index (1-6) to the conventional banding color.
func aqiColor(aqi int) string {
	switch {
	case aqi <= 1:
		return "#4caf50"
	case aqi == 2:
		return "#cddc39"
	case aqi == 3:
		return "#ffc107"
	case aqi == 4:
		return "#ff9800"
	case aqi == 5:
		return "#f44336"
	default:
		return "#9c27b0"
	}
}
