// Package updater reconciles the tool-owned inventory tables with the
// note backup. One pass scans the selected notebooks, analyzes every
// Flickr note body and writes flickr_image and flickr_blog rows: new
// notes get fresh rows, moved notes are rebound to their new GUID,
// duplicates of a live note are rejected, and rows refreshed within
// the quiet window are left alone.
package updater
