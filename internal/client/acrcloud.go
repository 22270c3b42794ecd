package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/spyn"
)

const identifyURI = "/v1/identify"

// ACRClient submits audio samples to the ACRCloud identification API.
type ACRClient struct {
	httpClient   *http.Client
	host         string
	accessKey    string
	accessSecret string
}

// IdentifyResult is the parsed outcome of one identification call.
type IdentifyResult struct {
	Identified   bool
	Track        *model.RecognizedTrack
	PlayOffsetMS int64
}

func NewACRClient(cfg *config.ACRCloudConfig) *ACRClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ACRClient{
		httpClient:   &http.Client{Timeout: timeout},
		host:         cfg.Host,
		accessKey:    cfg.AccessKey,
		accessSecret: cfg.AccessSecret,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *ACRClient) IsConfigured() bool {
	return c.accessKey != "" && c.accessSecret != ""
}

// sign builds the ACRCloud request signature: base64(HMAC-SHA1(secret,
// "POST\n/v1/identify\nkey\naudio\n1\nts")).
func (c *ACRClient) sign(timestamp string) string {
	stringToSign := strings.Join([]string{
		http.MethodPost, identifyURI, c.accessKey, "audio", "1", timestamp,
	}, "\n")
	mac := hmac.New(sha1.New, []byte(c.accessSecret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// acrResponse mirrors the relevant parts of the ACRCloud wire format.
type acrResponse struct {
	Status struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"status"`
	Metadata struct {
		PlayedDuration float64 `json:"played_duration"`
		Music          []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			Genres []struct {
				Name string `json:"name"`
			} `json:"genres"`
			Score       float64           `json:"score"`
			ACRID       string            `json:"acrid"`
			ExternalIDs map[string]string `json:"external_ids"`
		} `json:"music"`
	} `json:"metadata"`
}

// Status code 0 means a successful identification; 1001 means no result.
const acrStatusOK = 0

// Identify submits a sample and parses the identification result.
// Transport failures come back as *spyn.ConnectivityError so the session
// engine can flip into offline mode; everything else that goes wrong is a
// *spyn.ServiceError and costs only the current cycle.
func (c *ACRClient) Identify(ctx context.Context, sample []byte) (*IdentifyResult, error) {
	if !c.IsConfigured() {
		return nil, &spyn.ServiceError{Message: "ACRCloud not configured"}
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("sample", "sample.m4a")
	if err != nil {
		return nil, &spyn.ServiceError{Message: err.Error()}
	}
	if _, err := part.Write(sample); err != nil {
		return nil, &spyn.ServiceError{Message: err.Error()}
	}
	fields := map[string]string{
		"access_key":        c.accessKey,
		"sample_bytes":      strconv.Itoa(len(sample)),
		"timestamp":         timestamp,
		"signature":         c.sign(timestamp),
		"data_type":         "audio",
		"signature_version": "1",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, &spyn.ServiceError{Message: err.Error()}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &spyn.ServiceError{Message: err.Error()}
	}

	url := c.host
	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+identifyURI, &body)
	if err != nil {
		return nil, &spyn.ServiceError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &spyn.ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &spyn.ConnectivityError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &spyn.ServiceError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var parsed acrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &spyn.ServiceError{Message: fmt.Sprintf("malformed response: %v", err)}
	}

	if parsed.Status.Code != acrStatusOK || len(parsed.Metadata.Music) == 0 {
		return &IdentifyResult{Identified: false}, nil
	}

	m := parsed.Metadata.Music[0]
	artists := make([]string, 0, len(m.Artists))
	for _, a := range m.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}
	artist := strings.Join(artists, ", ")
	if artist == "" {
		artist = "Unknown"
	}
	title := m.Title
	if title == "" {
		title = "Unknown"
	}

	track := &model.RecognizedTrack{
		DedupeKey:       model.TrackDedupeKey(title, artist),
		Title:           title,
		Artist:          artist,
		Album:           m.Album.Name,
		Score:           m.Score,
		RecognizedAt:    time.Now(),
		ExternalTrackID: m.ACRID,
	}
	if len(m.Genres) > 0 {
		track.Genre = m.Genres[0].Name
	}

	return &IdentifyResult{
		Identified:   true,
		Track:        track,
		PlayOffsetMS: int64(parsed.Metadata.PlayedDuration * 1000),
	}, nil
}
