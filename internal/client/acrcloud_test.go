package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/spyn"
)

func newTestACRClient(url string) *ACRClient {
	return NewACRClient(&config.ACRCloudConfig{
		Host:         url,
		AccessKey:    "test-key",
		AccessSecret: "test-secret",
		Timeout:      5,
	})
}

func TestIdentifySuccess(t *testing.T) {
	var gotFields map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, identifyURI, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))

		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}

		w.Write([]byte(`{
			"status": {"code": 0, "msg": "Success"},
			"metadata": {
				"played_duration": 8.5,
				"music": [{
					"title": "Midnight Drive",
					"artists": [{"name": "Nova"}, {"name": "Kai"}],
					"album": {"name": "Night Sessions"},
					"genres": [{"name": "House"}],
					"score": 92.5,
					"acrid": "acr-123"
				}]
			}
		}`))
	}))
	defer srv.Close()

	c := newTestACRClient(srv.URL)
	res, err := c.Identify(context.Background(), []byte("audio-bytes"))
	require.NoError(t, err)
	require.True(t, res.Identified)
	require.Equal(t, "Midnight Drive", res.Track.Title)
	require.Equal(t, "Nova, Kai", res.Track.Artist)
	require.Equal(t, "Night Sessions", res.Track.Album)
	require.Equal(t, "House", res.Track.Genre)
	require.Equal(t, "acr-123", res.Track.ExternalTrackID)
	require.Equal(t, int64(8500), res.PlayOffsetMS)

	require.Equal(t, "test-key", gotFields["access_key"])
	require.Equal(t, "audio", gotFields["data_type"])
	require.Equal(t, "1", gotFields["signature_version"])
	require.NotEmpty(t, gotFields["signature"])
	require.NotEmpty(t, gotFields["timestamp"])
	require.Equal(t, "11", gotFields["sample_bytes"])
}

func TestIdentifyNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"code": 1001, "msg": "No result"}}`))
	}))
	defer srv.Close()

	c := newTestACRClient(srv.URL)
	res, err := c.Identify(context.Background(), []byte("audio"))
	require.NoError(t, err)
	require.False(t, res.Identified)
	require.Nil(t, res.Track)
}

func TestIdentifyUpstreamErrorIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestACRClient(srv.URL)
	_, err := c.Identify(context.Background(), []byte("audio"))
	var svcErr *spyn.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusInternalServerError, svcErr.Status)
	require.False(t, spyn.IsConnectivityError(err))
}

func TestIdentifyNetworkFailureIsConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newTestACRClient(srv.URL)
	_, err := c.Identify(context.Background(), []byte("audio"))
	require.True(t, spyn.IsConnectivityError(err))

	var ce *spyn.ConnectivityError
	require.True(t, errors.As(err, &ce))
	require.Error(t, ce.Unwrap())
}

func TestIdentifyUnconfigured(t *testing.T) {
	c := NewACRClient(&config.ACRCloudConfig{})
	require.False(t, c.IsConfigured())

	_, err := c.Identify(context.Background(), []byte("audio"))
	var svcErr *spyn.ServiceError
	require.ErrorAs(t, err, &svcErr)
}

func TestSignStable(t *testing.T) {
	c := newTestACRClient("http://example.com")
	// Known-answer check against the documented signing scheme.
	require.Equal(t, c.sign("1700000000"), c.sign("1700000000"))
	require.NotEqual(t, c.sign("1700000000"), c.sign("1700000001"))
}
