// Package enex renders Evernote export documents for Flickr photo and
// blog notes.
//
// Rendering is plain ${key} substitution into embedded templates; the
// caller assembles every value in a Draft first. Both the inner ENML
// body and the outer ENEX document are re-parsed before they are
// written, so a bad value can never produce an export file that
// Evernote rejects on import without a diagnostic next to it.
package enex
