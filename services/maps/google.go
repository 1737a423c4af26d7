package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ridelink/config"
	"ridelink/utils"

	"go.uber.org/zap"
)

const (
	distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	geocodeURL        = "https://maps.googleapis.com/maps/api/geocode/json"
)

// vagueLocationWords screen out inputs too generic to route, regardless of
// what the geocoder would make of them.
var vagueLocationWords = []string{
	"somewhere", "anywhere", "nearby", "around", "close by", "not sure", "idk",
}

// GoogleMapsService resolves routes through the Google Distance Matrix and
// Geocoding APIs.
type GoogleMapsService struct {
	apiKey string
	client *http.Client
}

// NewGoogleMapsService builds the maps client from the configured API key.
func NewGoogleMapsService() *GoogleMapsService {
	return &GoogleMapsService{
		apiKey: config.AppConfig.GoogleAPIKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// DistanceBetween estimates the driving leg between two addresses. Returns
// (nil, nil) when the route cannot be resolved; retries once on a timeout.
func (s *GoogleMapsService) DistanceBetween(ctx context.Context, origin, destination string) (*Leg, error) {
	logger := utils.GetLogger()
	if s.apiKey == "" {
		return nil, fmt.Errorf("maps API key not configured")
	}
	if IsVagueLocation(origin) || IsVagueLocation(destination) {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", "driving")
	params.Set("key", s.apiKey)
	reqURL := distanceMatrixURL + "?" + params.Encode()

	var dm distanceMatrixResponse
	if err := s.getJSON(ctx, reqURL, &dm); err != nil {
		// One retry covers transient timeouts on the Google edge.
		logger.Warn("Distance matrix request failed, retrying once", zap.Error(err))
		if err := s.getJSON(ctx, reqURL, &dm); err != nil {
			return nil, fmt.Errorf("distance matrix request failed: %w", err)
		}
	}

	if dm.Status != "OK" || len(dm.Rows) == 0 || len(dm.Rows[0].Elements) == 0 {
		return nil, nil
	}
	el := dm.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, nil
	}

	return &Leg{
		Km:      float64(el.Distance.Value) / 1000.0,
		Minutes: float64(el.Duration.Value) / 60.0,
	}, nil
}

// ResolveAddress geocodes an address, returning the formatted form or an
// error when the input is vague or unknown.
func (s *GoogleMapsService) ResolveAddress(ctx context.Context, address string) (string, error) {
	if IsVagueLocation(address) {
		return "", fmt.Errorf("location %q is too vague to resolve", address)
	}
	if s.apiKey == "" {
		// Without a geocoder the raw address passes through untouched.
		return strings.TrimSpace(address), nil
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", s.apiKey)

	var gc geocodeResponse
	if err := s.getJSON(ctx, geocodeURL+"?"+params.Encode(), &gc); err != nil {
		return "", fmt.Errorf("geocoding request failed: %w", err)
	}
	if gc.Status != "OK" || len(gc.Results) == 0 {
		return "", fmt.Errorf("could not resolve location %q", address)
	}
	return gc.Results[0].FormattedAddress, nil
}

func (s *GoogleMapsService) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsVagueLocation reports whether the text is too generic to treat as a
// pickup or dropoff address.
func IsVagueLocation(address string) bool {
	a := strings.ToLower(strings.TrimSpace(address))
	if len(a) < 3 {
		return true
	}
	for _, w := range vagueLocationWords {
		if strings.Contains(a, w) {
			return true
		}
	}
	return false
}
