package api

import (
	"fmt"
	"strings"

	"github.com/dmeza/limaq/internal/reports"
)

// Pollutants selectable on the hourly trend page, in display order.
var pollutants = []string{"PM2.5", "PM10", "SO2", "NO2", "CO", "O3"}

// ChartSeries is a named polyline for the SVG line charts.
type ChartSeries struct {
	Name   string
	Color  string
	Points string // SVG polyline points, precomputed
}

const (
	chartWidth  = 720
	chartHeight = 240
)

// polylinePoints scales values into chart coordinates. The y axis runs
// from zero to the series maximum.
func polylinePoints(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		max = 1
	}

	step := float64(chartWidth)
	if len(values) > 1 {
		step = float64(chartWidth) / float64(len(values)-1)
	}

	var b strings.Builder
	for i, v := range values {
		x := float64(i) * step
		y := float64(chartHeight) - v/max*float64(chartHeight)
		fmt.Fprintf(&b, "%.1f,%.1f ", x, y)
	}
	return strings.TrimSpace(b.String())
}

func pollutantValue(r reports.HourlyCityRow, pollutant string) float64 {
	switch pollutant {
	case "PM10":
		return r.PM10
	case "SO2":
		return r.SO2
	case "NO2":
		return r.NO2
	case "CO":
		return r.CO
	case "O3":
		return r.O3
	default:
		return r.PM25
	}
}

type homePage struct {
	Countries []string
	Districts []reports.LatestDistrictRow
}

type dailyCityPage struct {
	Rows   []reports.DailyCityRow
	MaxAQI int
}

type hourlyCityPage struct {
	Countries  []string
	Cities     []string
	Dates      []string
	Pollutants []string

	Country   string
	City      string
	Date      string
	Pollutant string

	Rows  []reports.HourlyCityRow
	Chart ChartSeries
}

type districtDetailPage struct {
	Countries []string
	Cities    []string
	Districts []string
	Dates     []string

	Country  string
	City     string
	District string
	Date     string

	Rows      []reports.DistrictHourRow
	AQIChart  ChartSeries
	Latitude  float64
	Longitude float64
}

// bubble positions a district reading on the map viewport.
type bubble struct {
	reports.DailyDistrictRow
	X, Y, R float64
}

type bubbleMapPage struct {
	Countries []string
	Cities    []string
	Dates     []string

	Country string
	City    string
	Date    string

	Rows    []reports.DailyDistrictRow
	Bubbles []bubble

	AvgAQI        float64
	WorstDistrict string
	BestDistrict  string
}

const (
	mapWidth  = 720
	mapHeight = 480
)

// placeBubbles projects lat/lon linearly into the map viewport, which is
// adequate at district scale.
func placeBubbles(rows []reports.DailyDistrictRow) []bubble {
	if len(rows) == 0 {
		return nil
	}
	minLat, maxLat := rows[0].Latitude, rows[0].Latitude
	minLon, maxLon := rows[0].Longitude, rows[0].Longitude
	for _, r := range rows {
		if r.Latitude < minLat {
			minLat = r.Latitude
		}
		if r.Latitude > maxLat {
			maxLat = r.Latitude
		}
		if r.Longitude < minLon {
			minLon = r.Longitude
		}
		if r.Longitude > maxLon {
			maxLon = r.Longitude
		}
	}
	latSpan := maxLat - minLat
	lonSpan := maxLon - minLon
	if latSpan == 0 {
		latSpan = 1
	}
	if lonSpan == 0 {
		lonSpan = 1
	}

	const margin = 30.0
	bubbles := make([]bubble, 0, len(rows))
	for _, r := range rows {
		bubbles = append(bubbles, bubble{
			DailyDistrictRow: r,
			X:                margin + (r.Longitude-minLon)/lonSpan*(mapWidth-2*margin),
			Y:                margin + (maxLat-r.Latitude)/latSpan*(mapHeight-2*margin),
			R:                6 + 3*float64(r.AQI),
		})
	}
	return bubbles
}
