// Package ingest pulls air-quality measurements from the weather API and
// lands them through the stage writer and uploader, one location at a time.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmeza/limaq/internal/models"
)

const clientTimeout = 30 * time.Second

// StatusError reports a non-2xx response from the weather API. Callers
// treat it as a warning and skip the location; anything else is logged as
// an unexpected error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, e.Body)
}

// Client issues one GET per location against the configured endpoint.
type Client struct {
	apiURL   string
	apiToken string
	client   *http.Client
}

func NewClient(apiURL, apiToken string) *Client {
	return &Client{
		apiURL:   apiURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: clientTimeout},
	}
}

// FetchAirQuality requests the current measurement for one location with
// air-quality data enabled and returns the raw JSON body. The payload is
// validated as JSON but deliberately not parsed into typed fields; schema
// extraction happens downstream in the warehouse.
func (c *Client) FetchAirQuality(loc models.Location) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("key", c.apiToken)
	params.Set("q", loc.Query())
	params.Set("aqi", "yes")

	resp, err := c.client.Get(c.apiURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", loc, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body for %s: %w", loc, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("malformed JSON body for %s", loc)
	}
	return json.RawMessage(body), nil
}
