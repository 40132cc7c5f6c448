// Package storage manages the import directory for generated notes.
//
// The storage package handles:
//   - Creating and managing the import directory
//   - Writing .enex export files with atomic write operations
//   - Marker files (.txt) that track in-flight and failed exports
//   - Diagnostic files (.xml) holding note bodies that failed validation
//
// The Manager type is the primary interface. Every export path has up
// to three companions: the .enex document itself, a .txt marker that
// exists while the note is being built (and stays behind with the error
// details when it fails), and a .xml diagnostic when the rendered body
// needed inspection.
//
// Usage:
//
//	manager, err := storage.NewManager("import")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path := manager.PhotoNotePath("janedoe", "9001")
//	manager.StartMarker(path, url)
//	// ... build and render the note ...
//	err = manager.WriteExport(path, document)
//	if err == nil {
//	    manager.ClearMarker(path)
//	}
package storage
