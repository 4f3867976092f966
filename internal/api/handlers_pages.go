package api

import (
	"log"
	"net/http"
)

// pick returns the requested value when present, otherwise the first
// option, so every page renders with data before the user touches a
// dropdown.
func pick(requested string, options []string) string {
	for _, o := range options {
		if o == requested {
			return requested
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return ""
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("template %s: %v", name, err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	countries, err := s.store.Countries(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	latest, err := s.store.LatestDistrictAQI(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.render(w, "home.html", homePage{Countries: countries, Districts: latest})
}

func (s *Server) handleDailyCity(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.TopCitiesByAQI(r.Context(), 10)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	maxAQI := 1
	for _, row := range rows {
		if row.AQI > maxAQI {
			maxAQI = row.AQI
		}
	}
	s.render(w, "daily_city.html", dailyCityPage{Rows: rows, MaxAQI: maxAQI})
}

func (s *Server) handleHourlyCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	countries, err := s.store.Countries(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	country := pick(q.Get("country"), countries)

	var cities []string
	if country != "" {
		if cities, err = s.store.Cities(ctx, country); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	city := pick(q.Get("city"), cities)

	var dates []string
	if city != "" {
		if dates, err = s.store.CityDates(ctx, country, city); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	date := pick(q.Get("date"), dates)
	pollutant := pick(q.Get("pollutant"), pollutants)

	page := hourlyCityPage{
		Countries:  countries,
		Cities:     cities,
		Dates:      dates,
		Pollutants: pollutants,
		Country:    country,
		City:       city,
		Date:       date,
		Pollutant:  pollutant,
	}

	if date != "" {
		rows, err := s.store.HourlyCityTrend(ctx, country, city, date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		page.Rows = rows

		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			values = append(values, pollutantValue(row, pollutant))
		}
		page.Chart = ChartSeries{Name: pollutant, Color: "#4fc3f7", Points: polylinePoints(values)}
	}

	s.render(w, "hourly_city.html", page)
}

func (s *Server) handleDistrictDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	countries, err := s.store.Countries(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	country := pick(q.Get("country"), countries)

	var cities []string
	if country != "" {
		if cities, err = s.store.Cities(ctx, country); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	city := pick(q.Get("city"), cities)

	var districts []string
	if city != "" {
		if districts, err = s.store.Districts(ctx, country, city); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	district := pick(q.Get("district"), districts)

	var dates []string
	if district != "" {
		if dates, err = s.store.DistrictDates(ctx, country, city, district); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	date := pick(q.Get("date"), dates)

	page := districtDetailPage{
		Countries: countries,
		Cities:    cities,
		Districts: districts,
		Dates:     dates,
		Country:   country,
		City:      city,
		District:  district,
		Date:      date,
	}

	if date != "" {
		rows, err := s.store.DistrictDetail(ctx, country, city, district, date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		page.Rows = rows

		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			values = append(values, float64(row.AQI))
		}
		page.AQIChart = ChartSeries{Name: "AQI", Color: "#ffa500", Points: polylinePoints(values)}
		if len(rows) > 0 {
			page.Latitude = rows[0].Latitude
			page.Longitude = rows[0].Longitude
		}
	}

	s.render(w, "district_detail.html", page)
}

func (s *Server) handleBubbleMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	countries, err := s.store.Countries(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	country := pick(q.Get("country"), countries)

	var cities []string
	if country != "" {
		if cities, err = s.store.Cities(ctx, country); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	city := pick(q.Get("city"), cities)

	var dates []string
	if city != "" {
		if dates, err = s.store.MapDates(ctx, country, city); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	date := pick(q.Get("date"), dates)

	page := bubbleMapPage{
		Countries: countries,
		Cities:    cities,
		Dates:     dates,
		Country:   country,
		City:      city,
		Date:      date,
	}

	if date != "" {
		rows, err := s.store.DailyDistrictAQI(ctx, country, city, date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		page.Rows = rows
		page.Bubbles = placeBubbles(rows)
		if len(rows) > 0 {
			total := 0
			for _, row := range rows {
				total += row.AQI
			}
			page.AvgAQI = float64(total) / float64(len(rows))
			// Rows arrive ordered by AQI descending.
			page.WorstDistrict = rows[0].District
			page.BestDistrict = rows[len(rows)-1].District
		}
	}

	s.render(w, "bubble_map.html", page)
}
