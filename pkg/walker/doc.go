// Package walker locates a photo's position inside an owner's public
// photostream by paging through it most-recent-first.
//
// The stream has no lookup-by-id call, so finding an old photo means a
// linear scan. Each page costs one API call; the walk is bounded by a
// maximum position (default 5000) to cap quota usage on large streams.
// An unsuccessful walk returns a NotFoundError carrying every scanned
// photo so the caller can dump the window to CSV for manual inspection.
package walker
