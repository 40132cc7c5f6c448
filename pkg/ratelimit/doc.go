// Package ratelimit provides rate limiting for Flickr API calls.
//
// Flickr budgets API keys at 3600 calls per hour. This package implements
// a sliding window limiter that tracks request timestamps within a moving
// time window, so sustained runs stay under the budget without fixed
// per-call sleeps.
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
//	// Sliding window: 3600 requests per hour
//	limiter := ratelimit.NewSlidingWindow(3600, time.Hour)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
//
// Time is read through the Clock interface. Production code uses the
// default wall clock; tests inject a fake clock so waiting behavior is
// deterministic.
package ratelimit
