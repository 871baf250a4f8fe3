// Package nominatim implements domain.Geocoder against the OSM Nominatim
// reverse-geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
	"github.com/couchcryptid/iss-telemetry/internal/observability"
)

// Client implements domain.Geocoder using the Nominatim /reverse endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. The user agent identifies this
// service per the Nominatim usage policy; requests without one get rejected.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts coordinates to place details. A zero result with
// nil error means Nominatim found no feature there (open ocean).
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"lat":    {fmt.Sprintf("%.6f", lat)},
		"lon":    {fmt.Sprintf("%.6f", lon)},
		// Zoom 15 resolves to settlement level rather than street addresses,
		// matching the precision a sub-satellite point warrants.
		"zoom":            {"15"},
		"accept-language": {"en"},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, c.baseURL+"/reverse?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case result.DisplayName == "":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.GeocodingResult{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var nr response
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	// Nominatim reports "no feature here" as a 200 with an error field.
	if nr.Error != "" {
		c.logger.Debug("nominatim found no feature", "detail", nr.Error)
		return domain.GeocodingResult{}, nil
	}

	return domain.GeocodingResult{
		DisplayName: nr.DisplayName,
		Name:        nr.Name,
		Category:    nr.Category,
	}, nil
}

// Nominatim jsonv2 response shape (fields we read).
type response struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Error       string `json:"error"`
}
