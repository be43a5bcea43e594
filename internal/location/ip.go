package location

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/earthview/globe/internal/geo"
	"github.com/earthview/globe/pkg/core"
)

// DefaultLookupURL is the IP geolocation endpoint used when none is configured.
const DefaultLookupURL = "https://ipapi.co/json/"

// IP looks the viewer up by network address.
type IP struct {
	url        string
	httpClient *http.Client
}

// NewIP creates an IP lookup source against url.
func NewIP(url string, timeout time.Duration) *IP {
	if url == "" {
		url = DefaultLookupURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IP{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Source.
func (s *IP) Name() string { return string(core.SourceIP) }

type lookupResponse struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

// Locate implements Source.
func (s *IP) Locate(ctx context.Context) (core.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return core.Location{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return core.Location{}, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Location{}, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return core.Location{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	lat, okLat := parseCoordinate(body.Latitude)
	lon, okLon := parseCoordinate(body.Longitude)
	if !okLat || !okLon {
		return core.Location{}, ErrMissingCoordinates
	}
	if err := geo.ValidateLatLon(lat, lon); err != nil {
		return core.Location{}, fmt.Errorf("lookup: %w", err)
	}

	return core.Location{Lat: lat, Lon: lon, Source: core.SourceIP}, nil
}

// parseCoordinate accepts a JSON number or a numeric string.
func parseCoordinate(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
