// Package icloud provides a client for the iCloud shared-album web API.
//
// Shared albums are public and require no authentication. The API has two
// endpoints, both POST with a JSON body:
//   - webstream: returns album metadata and the photo list
//   - webasseturls: returns short-lived download locations for up to 25
//     photo GUIDs per call
//
// This package includes:
//   - Token extraction from shared-album links and host partition derivation
//   - A configurable HTTP client with browser-context headers
//   - Type-safe models for the API responses, tolerant of unknown fields
//   - Built-in error types for better error handling
//
// Example usage:
//
//	token, err := icloud.ExtractToken("https://www.icloud.com/sharedalbum/#B2T5oqs3q2VPkhS")
//	if err != nil {
//	    // not a shared-album link
//	}
//
//	client := icloud.NewClient(30*time.Second, nil)
//	stream, err := client.FetchStream(token)
//	if err != nil {
//	    if icErr, ok := err.(*icloud.Error); ok {
//	        switch icErr.Type {
//	        case icloud.ErrorTypeServerError:
//	            // Handle server error
//	        case icloud.ErrorTypeParsing:
//	            // Handle schema mismatch
//	        }
//	    }
//	}
package icloud
