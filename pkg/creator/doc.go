// Package creator orchestrates the two note-producing flows: a photo
// note for one image of a stream, and a blog note profiling the stream
// itself.
//
// Both flows follow the same shape. The pasted URL is parsed, a start
// marker with the URL is put next to the future export, the owner and
// the photo or profile detail are fetched, the note is rendered and
// written, and the marker is settled: removed on success, rewritten
// with the failure for unexpected errors, and left as the plain URL
// when the failure already produced its own evidence in the import
// directory (a scan list for photos missing from the stream, a .xml
// diagnostic for bodies that failed validation).
//
// Every raw API payload consumed along the way is dumped to the
// metadata store, and downloaded images are cached there, so repeat
// runs against the same stream stay cheap.
package creator
