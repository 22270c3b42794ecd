package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/spyn"
)

// Base44Client talks to the hosted app platform that owns user-facing
// state: black diamond balances and producer push notifications.
// Implements spyn.Rewarder and spyn.Notifier.
type Base44Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewBase44Client(cfg *config.Base44Config) *Base44Client {
	return &Base44Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *Base44Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

type awardRewardRequest struct {
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Venue     string `json:"venue,omitempty"`
	VenueType string `json:"venueType,omitempty"`
}

type awardRewardResponse struct {
	Success        bool   `json:"success"`
	AlreadyAwarded bool   `json:"alreadyAwarded"`
	Message        string `json:"message,omitempty"`
}

// AwardSessionReward grants the end-of-session black diamond. The platform
// enforces once-per-user-per-day idempotency; a repeat call reports
// AlreadyAwarded instead of double-granting.
func (c *Base44Client) AwardSessionReward(ctx context.Context, userID string, venue *model.Venue) (*spyn.RewardResult, error) {
	if !c.IsConfigured() {
		log.Printf("Base44 not configured, skipping reward for user %s", userID)
		return &spyn.RewardResult{}, nil
	}

	payload := awardRewardRequest{
		UserID: userID,
		Type:   model.RewardTypeBlackDiamond,
		Reason: model.RewardReasonSpynSet,
	}
	if venue != nil {
		payload.Venue = venue.Name
		payload.VenueType = string(venue.Classification)
	}

	var parsed awardRewardResponse
	if err := c.post(ctx, "/award-reward", payload, &parsed); err != nil {
		return nil, err
	}
	return &spyn.RewardResult{
		Awarded:        parsed.Success && !parsed.AlreadyAwarded,
		AlreadyAwarded: parsed.AlreadyAwarded,
	}, nil
}

// NotifyTrackPlayed pushes a "your track was played" notification to the
// producer of a catalog track.
func (c *Base44Client) NotifyTrackPlayed(ctx context.Context, n *model.NotifyProducerRequest) error {
	if !c.IsConfigured() {
		return fmt.Errorf("base44 not configured")
	}
	return c.post(ctx, "/notify-producer", n, nil)
}

func (c *Base44Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("base44 request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("base44 returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("malformed base44 response: %w", err)
		}
	}
	return nil
}
