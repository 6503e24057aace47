// Package ratelimit provides rate limiting for the shared-streams API calls.
//
// The metadata and asset URL endpoints are unauthenticated; polite pacing
// keeps large albums from hammering them.
//
// The TokenBucket implementation is a fixed capacity bucket that refills
// after a specified period, suitable for burst traffic followed by quiet
// periods. It is the pacer used by the album fetcher.
//
// Interface:
//
// Rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Token bucket: 60 requests per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//
//	if limiter.Allow() {
//	    // Proceed with request
//	} else {
//	    // Wait for rate limit to reset
//	    limiter.Wait()
//	}
package ratelimit
