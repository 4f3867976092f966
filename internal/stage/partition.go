// Package stage lands raw measurement payloads: time-partitioned local
// files mirrored into a cloud storage stage the warehouse reads from.
package stage

import (
	"fmt"
	"time"

	"github.com/dmeza/limaq/internal/models"
)

// StagePrefix is the remote root all partitions are uploaded under.
const StagePrefix = "raw_stg/"

// Partition returns the storage path prefix for one (location, instant)
// pair: country/city/district/year/month/day/. The same location and UTC
// calendar day always map to the same prefix.
func Partition(loc models.Location, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%s/%s/%04d/%02d/%02d/",
		models.Slug(loc.Country),
		models.Slug(loc.City),
		models.Slug(loc.District),
		t.Year(), int(t.Month()), t.Day())
}

// FileName returns the timestamped file name for a capture instant. The
// full timestamp keeps multiple captures within a day from colliding.
func FileName(t time.Time) string {
	return fmt.Sprintf("weather_api_measurement_%s.json", t.UTC().Format("20060102T150405Z"))
}

// StagePath returns the remote object name for a partition and file name.
func StagePath(partition, fileName string) string {
	return StagePrefix + partition + fileName
}
