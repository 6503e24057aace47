package icloud

import (
	"encoding/json"
	"strconv"
)

// StringUint decodes a numeric field that the service encodes as a JSON
// string (dimensions, file sizes). Absent, null, or unparsable values decode
// to zero rather than failing the surrounding object.
type StringUint uint64

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringUint) UnmarshalJSON(data []byte) error {
	*s = 0
	if string(data) == "null" {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Some payloads carry plain numbers instead of strings.
		var n uint64
		if json.Unmarshal(data, &n) == nil {
			*s = StringUint(n)
		}
		return nil
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	*s = StringUint(n)
	return nil
}

// Stream is the webstream response: album-level metadata plus the ordered
// photo list. Unknown fields in the envelope are ignored.
type Stream struct {
	StreamName string  `json:"streamName"`
	StreamCtag string  `json:"streamCtag"`
	UserFirst  string  `json:"userFirstName"`
	UserLast   string  `json:"userLastName"`
	Photos     []Photo `json:"photos"`
}

// Photo represents a single photo in the album. Derivatives map a size
// label (usually a pixel dimension rendered as a string) to one rendition.
type Photo struct {
	PhotoGUID   string                `json:"photoGuid"`
	BatchGUID   string                `json:"batchGuid"`
	Caption     string                `json:"caption"`
	DateCreated string                `json:"dateCreated"`
	Width       StringUint            `json:"width"`
	Height      StringUint            `json:"height"`
	Derivatives map[string]Derivative `json:"derivatives"`
}

// Derivative is one resolution-specific rendition of a photo. The checksum
// is the join key against the webasseturls items map.
type Derivative struct {
	Checksum string     `json:"checksum"`
	FileSize StringUint `json:"fileSize"`
	Width    StringUint `json:"width"`
	Height   StringUint `json:"height"`
}

// AssetURLs is the webasseturls response for one batch of photo GUIDs.
// Items map a derivative checksum to its asset descriptor; Locations map
// the descriptor's location reference to scheme and candidate hosts. Both
// maps are scoped to the batch they arrived with.
type AssetURLs struct {
	Items     map[string]AssetURL `json:"items"`
	Locations map[string]Location `json:"locations"`
}

// AssetURL describes where one checksum's content can be fetched from.
type AssetURL struct {
	URLExpiry   string `json:"url_expiry"`
	URLLocation string `json:"url_location"`
	URLPath     string `json:"url_path"`
}

// Location is a network scheme plus an ordered list of candidate hosts.
type Location struct {
	Scheme string   `json:"scheme"`
	Hosts  []string `json:"hosts"`
}

// webStreamRequest is the webstream request body. The continuation tag is
// always null for a fresh fetch.
type webStreamRequest struct {
	StreamCtag *string `json:"streamCtag"`
}

// webAssetURLsRequest is the webasseturls request body.
type webAssetURLsRequest struct {
	PhotoGUIDs []string `json:"photoGuids"`
}
