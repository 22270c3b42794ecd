package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/model"
)

// rewardVenueTypes are the place types that make a venue reward-eligible.
var rewardVenueTypes = map[string]bool{
	"night_club": true,
	"bar":        true,
}

// PlacesClient proxies the Google Places nearby search to classify the
// venue a session runs at. Implements spyn.VenueLocator.
type PlacesClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	radius     int
}

func NewPlacesClient(cfg *config.PlacesConfig) *PlacesClient {
	radius := cfg.Radius
	if radius <= 0 {
		radius = 5000
	}
	return &PlacesClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		radius:     radius,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *PlacesClient) IsConfigured() bool {
	return c.apiKey != ""
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name     string   `json:"name"`
		Vicinity string   `json:"vicinity"`
		Types    []string `json:"types"`
	} `json:"results"`
}

// Nearby returns the closest night-club/bar style venue to a coordinate.
// Without an API key it returns a mock venue so the rest of the flow keeps
// working in development.
func (c *PlacesClient) Nearby(ctx context.Context, lat, lng float64) (*model.Venue, error) {
	if !c.IsConfigured() {
		log.Printf("Places API key not configured, returning mock venue")
		return c.mockVenue(lat, lng), nil
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(c.radius))
	params.Set("type", "night_club")
	params.Set("key", c.apiKey)

	reqURL := c.baseURL + "/nearbysearch/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places returned status %d", resp.StatusCode)
	}

	var parsed placesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed places response: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		// No venue at this location. Classification stays unknown so the
		// settlement can decide on its own.
		return &model.Venue{
			Latitude:       lat,
			Longitude:      lng,
			Classification: model.VenueUnknown,
		}, nil
	}

	place := parsed.Results[0]
	return &model.Venue{
		Name:           place.Name,
		City:           place.Vicinity,
		Latitude:       lat,
		Longitude:      lng,
		Types:          place.Types,
		Classification: ClassifyVenue(place.Types),
	}, nil
}

// ClassifyVenue maps place types onto the reward eligibility buckets.
func ClassifyVenue(types []string) model.VenueClassification {
	if len(types) == 0 {
		return model.VenueUnknown
	}
	for _, t := range types {
		if rewardVenueTypes[t] {
			return model.VenueValid
		}
	}
	return model.VenueInvalid
}

func (c *PlacesClient) mockVenue(lat, lng float64) *model.Venue {
	return &model.Venue{
		Name:           "Club Nocturne",
		City:           "Istanbul",
		Country:        "TR",
		Latitude:       lat,
		Longitude:      lng,
		Types:          []string{"night_club", "point_of_interest"},
		Classification: model.VenueValid,
	}
}
