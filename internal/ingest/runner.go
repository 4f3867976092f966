package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"

	"github.com/dmeza/limaq/internal/metrics"
	"github.com/dmeza/limaq/internal/models"
	"github.com/dmeza/limaq/internal/stage"
)

// Runner drives one ingestion pass: fetch, write, upload, sequentially for
// each location. Per-location failures are logged and skipped; the run
// always completes the full list.
type Runner struct {
	client   *Client
	writer   *stage.Writer
	uploader stage.Uploader
	clock    clockwork.Clock
}

func NewRunner(client *Client, writer *stage.Writer, uploader stage.Uploader) *Runner {
	return &Runner{
		client:   client,
		writer:   writer,
		uploader: uploader,
		clock:    clockwork.NewRealClock(),
	}
}

// SetClock overrides the capture-instant source.
func (r *Runner) SetClock(clock clockwork.Clock) {
	r.clock = clock
}

// Run processes every location in order and returns a summary of
// per-location outcomes. It never returns early: a failure at any stage
// marks that location failed and the loop moves on.
func (r *Runner) Run(ctx context.Context, locations []models.Location) models.Summary {
	var summary models.Summary

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			log.Printf("ingestion interrupted: %v", err)
			break
		}
		summary.Add(r.processLocation(ctx, loc))
	}

	log.Printf("data ingestion completed: %s", summary.String())
	return summary
}

func (r *Runner) processLocation(ctx context.Context, loc models.Location) models.Result {
	capturedAt := r.clock.Now().UTC()

	start := time.Now()
	payload, err := r.client.FetchAirQuality(loc)
	metrics.APILatency.WithLabelValues(loc.District).Observe(time.Since(start).Seconds())
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			metrics.APICallsTotal.WithLabelValues(loc.District, "http_error").Inc()
			log.Printf("HTTP error with %s: %v", loc.District, err)
		} else {
			metrics.APICallsTotal.WithLabelValues(loc.District, "error").Inc()
			log.Printf("unexpected error with %s: %v", loc.District, err)
		}
		return models.Result{Location: loc, Stage: models.StageFetch, Err: err}
	}
	metrics.APICallsTotal.WithLabelValues(loc.District, "ok").Inc()

	// Peek at a couple of fields for the log line only; the payload itself
	// stays opaque.
	pm25 := gjson.GetBytes(payload, "current.air_quality.pm2_5")
	epa := gjson.GetBytes(payload, "current.air_quality.us-epa-index")
	log.Printf("fetched %s: pm2_5=%s us_epa_index=%s", loc.District, pm25.String(), epa.String())

	localPath, err := r.writer.Write(payload, loc, capturedAt)
	if err != nil {
		log.Printf("write failed for %s: %v", loc.District, err)
		return models.Result{Location: loc, Stage: models.StageWrite, Err: err}
	}
	metrics.FilesWrittenTotal.Inc()

	partition := stage.Partition(loc, capturedAt)
	fileName := stage.FileName(capturedAt)

	log.Printf("placing %s at stage location %s", fileName, stage.StagePath(partition, ""))
	if err := r.uploader.Upload(ctx, localPath, partition, fileName); err != nil {
		metrics.StageUploadsTotal.WithLabelValues("error").Inc()
		log.Printf("stage upload failed for %s: %v", loc.District, err)
		return models.Result{Location: loc, Stage: models.StageUpload, Err: err}
	}

	found, err := r.uploader.Confirm(ctx, partition, fileName)
	if err != nil {
		metrics.StageUploadsTotal.WithLabelValues("error").Inc()
		log.Printf("stage listing failed for %s: %v", loc.District, err)
		return models.Result{Location: loc, Stage: models.StageUpload, Err: err}
	}
	if !found {
		metrics.StageUploadsTotal.WithLabelValues("missing").Inc()
		log.Printf("staged file not visible for %s: %s", loc.District, fileName)
		return models.Result{Location: loc, Stage: models.StageUpload, Err: errors.New("staged file not visible after upload")}
	}
	metrics.StageUploadsTotal.WithLabelValues("ok").Inc()

	return models.Result{Location: loc, Stage: models.StageDone}
}
