package icloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"icgrab/pkg/logger"
)

// Error types for shared-album API operations
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a shared-album API error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("icloud %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Client represents an iCloud shared-streams API client. API calls and
// asset transfers use separate HTTP clients so their timeouts can differ.
type Client struct {
	httpClient  *http.Client
	assetClient *http.Client
	headers     map[string]string
	logger      logger.Logger
}

// NewClient creates a new shared-streams API client. The service expects
// browser-context headers on every call; the Content-Type is text/plain
// even though the bodies are JSON.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		assetClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
			"Content-Type":    "text/plain",
			"Origin":          "https://www.icloud.com",
			"Referer":         "https://www.icloud.com/",
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetDownloadTimeout sets the timeout for asset transfers, independent of
// the API call timeout. Zero leaves the current timeout in place.
func (c *Client) SetDownloadTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.assetClient.Timeout = timeout
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// PostJSON performs a POST request with a JSON body and decodes the JSON
// response into target. Unknown response fields are tolerated and discarded.
func (c *Client) PostJSON(url string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to encode request body: %v", err),
			Code:    0,
		}
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		bodyPreview := string(data)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &Error{
			Type:    ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeNotFound,
			Message: "album not found or no longer shared",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// FetchStream fetches the album metadata and full photo list for a token.
// A single call returns the whole manifest; the continuation tag is sent
// as null.
func (c *Client) FetchStream(token string) (*Stream, error) {
	url := GetWebStreamURL(token)

	c.logger.DebugWithFields("fetching album stream", map[string]interface{}{
		"token": token,
		"url":   url,
	})

	var stream Stream
	if err := c.PostJSON(url, webStreamRequest{StreamCtag: nil}, &stream); err != nil {
		c.logger.ErrorWithFields("failed to fetch album stream", map[string]interface{}{
			"token": token,
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("successfully fetched album stream", map[string]interface{}{
		"token":  token,
		"photos": len(stream.Photos),
	})

	return &stream, nil
}

// FetchAssetURLs resolves download locations for one batch of photo GUIDs.
// The service accepts at most MaxGUIDsPerBatch identifiers per call; the
// caller is responsible for batching.
func (c *Client) FetchAssetURLs(token string, photoGUIDs []string) (*AssetURLs, error) {
	url := GetWebAssetURLsURL(token)

	c.logger.DebugWithFields("fetching asset urls", map[string]interface{}{
		"token": token,
		"guids": len(photoGUIDs),
	})

	var assets AssetURLs
	if err := c.PostJSON(url, webAssetURLsRequest{PhotoGUIDs: photoGUIDs}, &assets); err != nil {
		c.logger.ErrorWithFields("failed to fetch asset urls", map[string]interface{}{
			"token": token,
			"guids": len(photoGUIDs),
			"error": err.Error(),
		})
		return nil, err
	}

	return &assets, nil
}

// DownloadAsset downloads photo content from a fully resolved URL.
func (c *Client) DownloadAsset(assetURL string) ([]byte, error) {
	c.logger.DebugWithFields("downloading asset", map[string]interface{}{
		"url": assetURL,
	})

	req, err := http.NewRequest("GET", assetURL, nil)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	// Image fetches carry a browser image-context Accept header instead of
	// the API headers.
	req.Header.Set("User-Agent", c.headers["User-Agent"])
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.icloud.com/")
	req.Header.Set("Sec-Fetch-Dest", "image")

	start := time.Now()
	resp, err := c.assetClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("failed to download asset", map[string]interface{}{
			"url":   assetURL,
			"error": err.Error(),
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read asset data", map[string]interface{}{
			"url":   assetURL,
			"error": err.Error(),
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download asset: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("successfully downloaded asset", map[string]interface{}{
		"url":      assetURL,
		"size":     len(data),
		"duration": time.Since(start),
	})

	return data, nil
}
