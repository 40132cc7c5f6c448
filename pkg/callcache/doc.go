// Package callcache provides a call-accounting cache for Flickr API
// responses.
//
// The cache exists as much for accounting as for speed: Flickr budgets
// API keys per hour, so knowing how many distinct calls a run made (and
// how many repeats the cache absorbed) is part of the tool's output.
// Every Get is counted per call name plus an "_all" aggregate, and the
// report is rendered at the end of a run:
//
//	cache hits / misses:
//	  _all: 12 / 5
//	  flickr.people.getPhotos: 8 / 2
//	  flickr.photos.getInfo: 4 / 3
//
// Keys are built with Key from the call name and request parameters;
// credential and signing parameters (api_key, oauth_*, api_sig) and the
// response format are excluded so identical requests hit regardless of
// signing details. The cache holds raw response bodies and is created
// fresh for each run.
package callcache
