// Package meteo fetches historical hourly weather from the Open-Meteo
// archive API and reduces it to per-season averages.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/agrisense/crop-advisor/internal/district"
	"github.com/agrisense/crop-advisor/internal/season"
)

const (
	archiveBaseURL = "https://archive-api.open-meteo.com/v1/archive"
	defaultTimeout = 30 * time.Second
	defaultRetries = 5
	defaultTTL     = time.Hour
	cacheSize      = 256

	// The district table covers Indian districts; archive timestamps are
	// requested in the local timezone so seasonal windows line up.
	timezone = "Asia/Kolkata"
)

// Averages is one season's reduced climate data.
type Averages struct {
	TemperatureC float64
	HumidityPct  float64
	Samples      int
}

// Client fetches archived weather from Open-Meteo (free, no auth required).
// The same district/season window is requested repeatedly across users, so
// successful responses are cached by coordinates plus date range.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries uint64
	cache      *expirable.LRU[string, Averages]
	now        func() time.Time
}

// NewClient creates an archive client with default timeout, retry, and
// cache settings.
func NewClient() *Client {
	return NewClientWith(archiveBaseURL, &http.Client{Timeout: defaultTimeout}, defaultRetries, defaultTTL)
}

// NewClientWith creates an archive client with explicit settings so the
// transport can be swapped or mocked in tests.
func NewClientWith(baseURL string, httpClient *http.Client, maxRetries int, ttl time.Duration) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: uint64(maxRetries),
		cache:      expirable.NewLRU[string, Averages](cacheSize, nil, ttl),
		now:        time.Now,
	}
}

// SeasonalAverages fetches hourly temperature and relative humidity for the
// district's coordinates over the season's historical window and averages
// them. Any failure (unknown season, network error, malformed response,
// empty series) yields ok=false so the caller skips the season instead of
// failing the whole request.
func (c *Client) SeasonalAverages(ctx context.Context, coords district.Coordinates, s season.Season) (Averages, bool) {
	start, end, ok := season.Window(s, c.now())
	if !ok {
		return Averages{}, false
	}

	key := fmt.Sprintf("%.4f,%.4f:%s:%s", coords.Lat, coords.Lon, start, end)
	if avg, ok := c.cache.Get(key); ok {
		return avg, true
	}

	resp, err := c.fetch(ctx, coords, start, end)
	if err != nil {
		log.Printf("[meteo] fetch failed for (%.4f, %.4f) %s..%s: %v", coords.Lat, coords.Lon, start, end, err)
		return Averages{}, false
	}

	avg, err := reduce(resp)
	if err != nil {
		log.Printf("[meteo] unusable response for (%.4f, %.4f) %s..%s: %v", coords.Lat, coords.Lon, start, end, err)
		return Averages{}, false
	}

	c.cache.Add(key, avg)
	return avg, true
}

// fetch issues the archive request with bounded exponential retry on
// transient failures. Client errors (4xx) are not retried.
func (c *Client) fetch(ctx context.Context, coords district.Coordinates, start, end string) (*archiveResponse, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", coords.Lat))
	params.Set("longitude", fmt.Sprintf("%.4f", coords.Lon))
	params.Set("start_date", start)
	params.Set("end_date", end)
	params.Set("hourly", "temperature_2m,relative_humidity_2m")
	params.Set("timezone", timezone)

	endpoint := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	var data archiveResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch archive: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("archive API returned status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse archive response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return &data, nil
}

// reduce averages the hourly series down to one scalar each.
func reduce(resp *archiveResponse) (Averages, error) {
	temps := resp.Hourly.Temperature
	hums := resp.Hourly.Humidity
	if len(temps) == 0 || len(hums) == 0 {
		return Averages{}, fmt.Errorf("empty hourly series")
	}
	if len(temps) != len(hums) {
		return Averages{}, fmt.Errorf("mismatched hourly series: %d temperature vs %d humidity samples", len(temps), len(hums))
	}

	var tSum, hSum float64
	for i := range temps {
		tSum += temps[i]
		hSum += hums[i]
	}
	n := float64(len(temps))
	return Averages{
		TemperatureC: tSum / n,
		HumidityPct:  hSum / n,
		Samples:      len(temps),
	}, nil
}

// Open-Meteo archive API response types.
type archiveResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		Humidity    []float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}
