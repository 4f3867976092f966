package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmeza/limaq/internal/models"
	"github.com/dmeza/limaq/internal/stage"
)

type fakeUploader struct {
	uploads  []string
	failFor  map[string]error
	confirms int
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, partition, fileName string) error {
	key := stage.StagePath(partition, fileName)
	if err, ok := f.failFor[partition]; ok {
		return err
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeUploader) Confirm(ctx context.Context, partition, fileName string) (bool, error) {
	f.confirms++
	if _, ok := f.failFor[partition]; ok {
		return false, nil
	}
	return true, nil
}

func testLocations(districts ...string) []models.Location {
	locs := make([]models.Location, 0, len(districts))
	for _, d := range districts {
		locs = append(locs, models.Location{Country: "Peru", City: "Lima", District: d})
	}
	return locs
}

func newTestRunner(t *testing.T, apiHandler http.HandlerFunc, up stage.Uploader) *Runner {
	t.Helper()
	srv := httptest.NewServer(apiHandler)
	t.Cleanup(srv.Close)

	r := NewRunner(NewClient(srv.URL, "tok"), stage.NewWriter(t.TempDir()), up)
	r.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 3, 7, 10, 11, 12, 0, time.UTC)))
	return r
}

func TestRunContinuesPastHTTPError(t *testing.T) {
	up := &fakeUploader{}
	r := newTestRunner(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("q") == "Ate, Lima, Peru" {
			http.Error(w, "bad district", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"current":{"air_quality":{"pm2_5":8.2}}}`))
	}, up)

	summary := r.Run(context.Background(), testLocations("Ancon", "Ate", "Barranco"))

	if len(summary.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(summary.Results))
	}
	if summary.Succeeded() != 2 || summary.Failed() != 1 {
		t.Errorf("summary = %s", summary.String())
	}
	failed := summary.Results[1]
	if failed.Location.District != "Ate" || failed.Stage != models.StageFetch {
		t.Errorf("failed result = %+v", failed)
	}
	var statusErr *StatusError
	if !errors.As(failed.Err, &statusErr) {
		t.Errorf("Err = %v, want *StatusError", failed.Err)
	}
	if len(up.uploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(up.uploads))
	}
}

func TestRunContinuesPastUploadError(t *testing.T) {
	at := time.Date(2024, 3, 7, 10, 11, 12, 0, time.UTC)
	badPartition := stage.Partition(models.Location{Country: "Peru", City: "Lima", District: "Ate"}, at)
	up := &fakeUploader{failFor: map[string]error{badPartition: errors.New("stage unavailable")}}

	r := newTestRunner(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"current":{"air_quality":{"pm2_5":8.2}}}`))
	}, up)

	summary := r.Run(context.Background(), testLocations("Ancon", "Ate", "Barranco"))

	if summary.Failed() != 1 {
		t.Fatalf("Failed() = %d, want 1", summary.Failed())
	}
	if got := summary.Results[1].Stage; got != models.StageUpload {
		t.Errorf("failed stage = %q, want upload", got)
	}
	// The third location must still have been uploaded.
	if len(up.uploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(up.uploads))
	}
}

func TestRunConfirmsEveryUpload(t *testing.T) {
	up := &fakeUploader{}
	r := newTestRunner(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}, up)

	summary := r.Run(context.Background(), testLocations("Ancon", "Barranco"))

	if summary.Failed() != 0 {
		t.Fatalf("summary = %s", summary.String())
	}
	if up.confirms != 2 {
		t.Errorf("confirms = %d, want 2", up.confirms)
	}
}

func TestRunStagePathsMirrorPartition(t *testing.T) {
	up := &fakeUploader{}
	r := newTestRunner(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}, up)

	r.Run(context.Background(), testLocations("Magdalena del Mar"))

	want := "raw_stg/peru/lima/magdalena-del-mar/2024/03/07/weather_api_measurement_20240307T101112Z.json"
	if len(up.uploads) != 1 || up.uploads[0] != want {
		t.Errorf("uploads = %v, want [%s]", up.uploads, want)
	}
}
