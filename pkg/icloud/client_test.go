package icloud

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icgrab/pkg/logger"
)

func TestNewClient(t *testing.T) {
	log := logger.NewNopLogger()
	client := NewClient(30*time.Second, log)

	assert.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.headers)
	assert.Equal(t, log, client.logger)

	// The service rejects calls without browser context headers
	assert.Equal(t, "text/plain", client.headers["Content-Type"])
	assert.Equal(t, "https://www.icloud.com", client.headers["Origin"])
}

func TestSetHeader(t *testing.T) {
	client := NewClient(30*time.Second, logger.NewNopLogger())

	client.SetHeader("X-Custom-Header", "test-value")
	assert.Equal(t, "test-value", client.headers["X-Custom-Header"])
}

func TestSetHeaderUserAgentOnWire(t *testing.T) {
	const customUA = "icgrab-test/1.0"
	log := logger.NewNopLogger()

	t.Run("api calls", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, customUA, r.Header.Get("User-Agent"))
			w.Write([]byte(`{"streamName":"A","photos":[]}`))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)
		client.SetHeader("User-Agent", customUA)

		var stream Stream
		require.NoError(t, client.PostJSON(server.URL, webStreamRequest{}, &stream))
	})

	t.Run("asset downloads", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, customUA, r.Header.Get("User-Agent"))
			w.Write([]byte("jpeg bytes"))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)
		client.SetHeader("User-Agent", customUA)

		_, err := client.DownloadAsset(server.URL + "/photo.jpg")
		require.NoError(t, err)
	})
}

func TestSetDownloadTimeout(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("slow asset transfer times out", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			w.Write([]byte("too late"))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)
		client.SetDownloadTimeout(50 * time.Millisecond)

		_, err := client.DownloadAsset(server.URL + "/slow.jpg")
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, ErrorTypeNetwork, apiErr.Type)
	})

	t.Run("api timeout is unaffected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"streamName":"A","photos":[]}`))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)
		client.SetDownloadTimeout(50 * time.Millisecond)

		var stream Stream
		require.NoError(t, client.PostJSON(server.URL, webStreamRequest{}, &stream))
	})

	t.Run("zero leaves timeout in place", func(t *testing.T) {
		client := NewClient(30*time.Second, log)
		client.SetDownloadTimeout(0)
		assert.Equal(t, 30*time.Second, client.assetClient.Timeout)
	})
}

func TestPostJSON(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"streamCtag":null}`, string(body))

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"streamName":"Test Album","photos":[]}`))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)

		var stream Stream
		err := client.PostJSON(server.URL, webStreamRequest{StreamCtag: nil}, &stream)
		require.NoError(t, err)
		assert.Equal(t, "Test Album", stream.StreamName)
	})

	t.Run("unknown response fields are tolerated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"streamName":"A","futureField":{"deep":[1,2]},"photos":[]}`))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)

		var stream Stream
		err := client.PostJSON(server.URL, webStreamRequest{}, &stream)
		require.NoError(t, err)
		assert.Equal(t, "A", stream.StreamName)
	})

	t.Run("malformed JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>not json</html>`))
		}))
		defer server.Close()

		client := NewClient(30*time.Second, log)

		var stream Stream
		err := client.PostJSON(server.URL, webStreamRequest{}, &stream)
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, ErrorTypeParsing, apiErr.Type)
	})

	t.Run("status code mapping", func(t *testing.T) {
		tests := []struct {
			status   int
			expected ErrorType
		}{
			{http.StatusNotFound, ErrorTypeNotFound},
			{http.StatusTooManyRequests, ErrorTypeRateLimit},
			{http.StatusInternalServerError, ErrorTypeServerError},
			{http.StatusBadGateway, ErrorTypeServerError},
			{http.StatusTeapot, ErrorTypeUnknown},
		}

		for _, tt := range tests {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			client := NewClient(30*time.Second, log)

			var stream Stream
			err := client.PostJSON(server.URL, webStreamRequest{}, &stream)
			require.Error(t, err, "status %d", tt.status)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.expected, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.Code)

			server.Close()
		}
	})

	t.Run("network error", func(t *testing.T) {
		client := NewClient(time.Second, log)

		var stream Stream
		err := client.PostJSON("http://127.0.0.1:1/unreachable", webStreamRequest{}, &stream)
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, ErrorTypeNetwork, apiErr.Type)
	})
}

func TestFetchAssetURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PhotoGUIDs []string `json:"photoGuids"`
		}
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, []string{"g1", "g2"}, req.PhotoGUIDs)

		w.Write([]byte(`{
			"items": {"cs1": {"url_location": "ref1", "url_path": "/x/photo.jpg"}},
			"locations": {"ref1": {"scheme": "https", "hosts": ["host1"]}}
		}`))
	}))
	defer server.Close()

	client := NewClient(30*time.Second, logger.NewNopLogger())

	// Route the partitioned URL at the test server by posting directly
	var assets AssetURLs
	err := client.PostJSON(server.URL, webAssetURLsRequest{PhotoGUIDs: []string{"g1", "g2"}}, &assets)
	require.NoError(t, err)

	require.Contains(t, assets.Items, "cs1")
	assert.Equal(t, "ref1", assets.Items["cs1"].URLLocation)
	assert.Equal(t, []string{"host1"}, assets.Locations["ref1"].Hosts)
}

func TestDownloadAsset(t *testing.T) {
	t.Run("successful download", func(t *testing.T) {
		content := []byte("jpeg bytes")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Contains(t, r.Header.Get("Accept"), "image/")
			assert.Equal(t, "image", r.Header.Get("Sec-Fetch-Dest"))
			w.Write(content)
		}))
		defer server.Close()

		client := NewClient(30*time.Second, logger.NewNopLogger())

		data, err := client.DownloadAsset(server.URL + "/photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("expired URL returns not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(30*time.Second, logger.NewNopLogger())

		_, err := client.DownloadAsset(server.URL + "/gone.jpg")
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, ErrorTypeNotFound, apiErr.Type)
	})
}
