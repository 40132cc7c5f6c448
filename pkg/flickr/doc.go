// Package flickr provides a client for the Flickr REST API.
//
// This package includes:
//   - A rate-limited, call-accounting HTTP client (JSON REST, GET only)
//   - OAuth 1.0a request signing and the three-legged token exchange
//   - Type-safe models for the API responses photonotes consumes
//   - URL parsing for the photo and member page URLs users paste in
//
// Example usage:
//
//	client := flickr.NewClient(apiKey, apiSecret, 30*time.Second, log)
//
//	// Resolve a pasted URL to its owner
//	user, err := client.LookupUser(ctx, "https://www.flickr.com/photos/someone/123456/")
//	if err != nil {
//	    if errors.TypeOf(err) == errors.ErrorTypeNotFound {
//	        // Owner is gone
//	    }
//	}
//
//	// Page through the owner's photostream
//	page, err := client.GetPhotos(ctx, user.User.ID, 1, 500)
//
// Flickr reports application-level failures in a {"stat":"fail"}
// envelope with its own error codes; the client maps those and HTTP
// transport statuses onto the shared typed errors. Repeated calls with
// the same parameters are served from the run cache, whose hit/miss
// statistics are reported at the end of a run.
package flickr
