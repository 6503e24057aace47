package icloud

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// HostSuffix is the shared-streams host suffix; the partition prefix is
	// derived from the album token.
	HostSuffix = "-sharedstreams.icloud.com"

	// WebStreamPath is the endpoint pattern for album metadata
	WebStreamPath = "/sharedstreams/webstream"

	// WebAssetURLsPath is the endpoint pattern for asset download locations
	WebAssetURLsPath = "/sharedstreams/webasseturls"

	// MaxGUIDsPerBatch is the maximum number of photo GUIDs the
	// webasseturls endpoint accepts per call
	MaxGUIDsPerBatch = 25
)

// ErrInvalidAlbumURL indicates the input does not contain a recognizable
// shared-album link fragment.
var ErrInvalidAlbumURL = errors.New("invalid iCloud shared album URL")

// albumURLPattern matches the fragment form .../sharedalbum/#<token> where
// the token is letters and digits only.
var albumURLPattern = regexp.MustCompile(`icloud\.com/sharedalbum/#([A-Za-z0-9]+)`)

const base62Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ExtractToken extracts the opaque album token from a shared-album link.
// The token is returned verbatim; any input without the expected fragment
// fails with ErrInvalidAlbumURL.
func ExtractToken(input string) (string, error) {
	matches := albumURLPattern.FindStringSubmatch(input)
	if matches == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAlbumURL, input)
	}
	return matches[1], nil
}

// base62Value decodes a single base-62 digit. Unknown characters decode to 0.
func base62Value(c byte) int {
	idx := strings.IndexByte(base62Charset, c)
	if idx < 0 {
		return 0
	}
	return idx
}

// Partition returns the server partition number encoded in the album token.
// Tokens starting with 'A' encode the partition in the second character;
// all other tokens encode it in the second and third characters.
func Partition(token string) int {
	switch {
	case len(token) >= 2 && token[0] == 'A':
		return base62Value(token[1])
	case len(token) >= 3:
		return base62Value(token[1])*62 + base62Value(token[2])
	default:
		return 1
	}
}

// BaseURL returns the shared-streams base URL serving the given album token.
func BaseURL(token string) string {
	return fmt.Sprintf("https://p%02d%s", Partition(token), HostSuffix)
}

// GetWebStreamURL constructs the URL for fetching album metadata.
func GetWebStreamURL(token string) string {
	return fmt.Sprintf("%s/%s%s", BaseURL(token), token, WebStreamPath)
}

// GetWebAssetURLsURL constructs the URL for resolving asset download locations.
func GetWebAssetURLsURL(token string) string {
	return fmt.Sprintf("%s/%s%s", BaseURL(token), token, WebAssetURLsPath)
}
