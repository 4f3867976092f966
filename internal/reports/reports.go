// Package reports is the read-only query layer over the warehouse's
// published views. All aggregation, deduplication and AQI bucketing happen
// warehouse-side; this package only selects and scans.
package reports

import (
	"context"
	"database/sql"
	"fmt"
)

// PublishSchema is the warehouse schema holding the published views.
const PublishSchema = "publish_sch"

// Store wraps the warehouse session for dashboard queries. schema, when
// non-empty, qualifies the published view names (e.g. "publish_sch");
// local sqlite warehouses leave it empty.
type Store struct {
	db     *sql.DB
	schema string
}

func New(db *sql.DB, schema string) *Store {
	return &Store{db: db, schema: schema}
}

func (s *Store) view(name string) string {
	if s.schema == "" {
		return name
	}
	return s.schema + "." + name
}

// DailyCityRow is one city's daily aggregate from vw_daily_city_agg.
type DailyCityRow struct {
	Country            string
	City               string
	PM25, PM10         float64
	SO2, NO2, CO, O3   float64
	ProminentPollutant string
	AQI                int
}

// HourlyCityRow is one hour of a city's pollutant averages.
type HourlyCityRow struct {
	Hour             string
	PM25, PM10       float64
	SO2, NO2, CO, O3 float64
	AQI              int
}

// DistrictHourRow is one hour of a district's detail from
// vw_hourly_district_detail.
type DistrictHourRow struct {
	Hour               string
	Latitude           float64
	Longitude          float64
	PM25, PM10         float64
	SO2, NO2, CO, O3   float64
	ProminentPollutant string
	AQI                int
}

// DailyDistrictRow is one district's daily aggregate from
// vw_daily_district_aqi, rendered on the bubble map.
type DailyDistrictRow struct {
	District           string
	Latitude           float64
	Longitude          float64
	PM25, PM10         float64
	ProminentPollutant string
	AQI                int
	Readings           int
}

// LatestDistrictRow is a district's most recent AQI from
// vw_latest_district_aqi, shown on the home page.
type LatestDistrictRow struct {
	Country            string
	City               string
	District           string
	Latitude           float64
	Longitude          float64
	ProminentPollutant string
	AQI                int
	MeasuredAt         string
}

// Countries lists distinct countries from the location hierarchy.
func (s *Store) Countries(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx, fmt.Sprintf(
		"SELECT DISTINCT country FROM %s ORDER BY 1", s.view("vw_location_hierarchy")))
}

// Cities lists distinct cities for a country.
func (s *Store) Cities(ctx context.Context, country string) ([]string, error) {
	return s.stringColumn(ctx, fmt.Sprintf(
		"SELECT DISTINCT city FROM %s WHERE country = $1 ORDER BY 1",
		s.view("vw_location_hierarchy")), country)
}

// Districts lists distinct districts for a city.
func (s *Store) Districts(ctx context.Context, country, city string) ([]string, error) {
	return s.stringColumn(ctx, fmt.Sprintf(
		"SELECT DISTINCT district FROM %s WHERE country = $1 AND city = $2 ORDER BY 1",
		s.view("vw_location_hierarchy")), country, city)
}

// CityDates lists measurement dates available for a city, newest first.
func (s *Store) CityDates(ctx context.Context, country, city string) ([]string, error) {
	return s.stringColumn(ctx, fmt.Sprintf(
		"SELECT DISTINCT measurement_date FROM %s WHERE country = $1 AND city = $2 ORDER BY 1 DESC",
		s.view("vw_hourly_city_agg")), country, city)
}

// DistrictDates lists measurement dates available for a district, newest first.
func (s *Store) DistrictDates(ctx context.Context, country, city, district string) ([]string, error) {
	return s.stringColumn(ctx, fmt.Sprintf(
		"SELECT DISTINCT measurement_date FROM %s WHERE country = $1 AND city = $2 AND district = $3 ORDER BY 1 DESC",
		s.view("vw_hourly_district_detail")), country, city, district)
}

// MapDates lists dates with daily district aggregates for a city, newest first.
func (s *Store) MapDates(ctx context.Context, country, city string) ([]string, error) {
	return s.stringColumn(ctx, fmt.Sprintf(
		"SELECT DISTINCT measurement_date FROM %s WHERE country = $1 AND city = $2 ORDER BY 1 DESC",
		s.view("vw_daily_district_aqi")), country, city)
}

// DailyDistrictAQI returns every district's daily aggregate for one city and
// date, worst air first. Districts without coordinates are excluded; they
// cannot be placed on the map.
func (s *Store) DailyDistrictAQI(ctx context.Context, country, city, date string) ([]DailyDistrictRow, error) {
	query := fmt.Sprintf(`
		SELECT district,
		       latitude, longitude,
		       COALESCE(pm25_avg, 0), COALESCE(pm10_avg, 0),
		       COALESCE(prominent_pollutant, ''), COALESCE(aqi, 0),
		       COALESCE(hourly_readings, 0)
		FROM %s
		WHERE country = $1 AND city = $2 AND measurement_date = $3
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY aqi DESC`, s.view("vw_daily_district_aqi"))

	rows, err := s.db.QueryContext(ctx, query, country, city, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyDistrictRow
	for rows.Next() {
		var r DailyDistrictRow
		if err := rows.Scan(&r.District, &r.Latitude, &r.Longitude, &r.PM25, &r.PM10, &r.ProminentPollutant, &r.AQI, &r.Readings); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopCitiesByAQI returns the worst cities by AQI for the most recent date.
func (s *Store) TopCitiesByAQI(ctx context.Context, limit int) ([]DailyCityRow, error) {
	v := s.view("vw_daily_city_agg")
	query := fmt.Sprintf(`
		SELECT country, city,
		       COALESCE(pm25_avg, 0), COALESCE(pm10_avg, 0),
		       COALESCE(so2_avg, 0), COALESCE(no2_avg, 0),
		       COALESCE(co_avg, 0), COALESCE(o3_avg, 0),
		       COALESCE(prominent_pollutant, ''), COALESCE(aqi, 0)
		FROM %s
		WHERE measurement_date = (SELECT MAX(measurement_date) FROM %s)
		ORDER BY aqi DESC
		LIMIT $1`, v, v)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyCityRow
	for rows.Next() {
		var r DailyCityRow
		if err := rows.Scan(&r.Country, &r.City, &r.PM25, &r.PM10, &r.SO2, &r.NO2, &r.CO, &r.O3, &r.ProminentPollutant, &r.AQI); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HourlyCityTrend returns hourly pollutant averages for one city and date.
func (s *Store) HourlyCityTrend(ctx context.Context, country, city, date string) ([]HourlyCityRow, error) {
	query := fmt.Sprintf(`
		SELECT aqi_hour,
		       COALESCE(pm25_avg, 0), COALESCE(pm10_avg, 0),
		       COALESCE(so2_avg, 0), COALESCE(no2_avg, 0),
		       COALESCE(co_avg, 0), COALESCE(o3_avg, 0),
		       COALESCE(aqi, 0)
		FROM %s
		WHERE country = $1 AND city = $2 AND measurement_date = $3
		ORDER BY aqi_hour`, s.view("vw_hourly_city_agg"))

	rows, err := s.db.QueryContext(ctx, query, country, city, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HourlyCityRow
	for rows.Next() {
		var r HourlyCityRow
		if err := rows.Scan(&r.Hour, &r.PM25, &r.PM10, &r.SO2, &r.NO2, &r.CO, &r.O3, &r.AQI); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistrictDetail returns hourly district rows for one district and date.
func (s *Store) DistrictDetail(ctx context.Context, country, city, district, date string) ([]DistrictHourRow, error) {
	query := fmt.Sprintf(`
		SELECT aqi_hour,
		       COALESCE(latitude, 0), COALESCE(longitude, 0),
		       COALESCE(pm25_avg, 0), COALESCE(pm10_avg, 0),
		       COALESCE(so2_avg, 0), COALESCE(no2_avg, 0),
		       COALESCE(co_avg, 0), COALESCE(o3_avg, 0),
		       COALESCE(prominent_pollutant, ''), COALESCE(aqi, 0)
		FROM %s
		WHERE country = $1 AND city = $2 AND district = $3 AND measurement_date = $4
		ORDER BY aqi_hour`, s.view("vw_hourly_district_detail"))

	rows, err := s.db.QueryContext(ctx, query, country, city, district, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DistrictHourRow
	for rows.Next() {
		var r DistrictHourRow
		if err := rows.Scan(&r.Hour, &r.Latitude, &r.Longitude, &r.PM25, &r.PM10, &r.SO2, &r.NO2, &r.CO, &r.O3, &r.ProminentPollutant, &r.AQI); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestDistrictAQI returns every district's most recent reading.
func (s *Store) LatestDistrictAQI(ctx context.Context) ([]LatestDistrictRow, error) {
	query := fmt.Sprintf(`
		SELECT country, city, district,
		       COALESCE(latitude, 0), COALESCE(longitude, 0),
		       COALESCE(prominent_pollutant, ''), COALESCE(aqi, 0),
		       COALESCE(measurement_time, '')
		FROM %s
		ORDER BY aqi DESC`, s.view("vw_latest_district_aqi"))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LatestDistrictRow
	for rows.Next() {
		var r LatestDistrictRow
		if err := rows.Scan(&r.Country, &r.City, &r.District, &r.Latitude, &r.Longitude, &r.ProminentPollutant, &r.AQI, &r.MeasuredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
