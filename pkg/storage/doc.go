// Package storage provides file management for downloaded album assets.
//
// The storage package handles:
//   - Creating the output directory, including parents
//   - Saving assets with atomic, durable write operations
//   - Thread-safe concurrent saves
//
// The Manager type is the primary interface. Every save goes through a
// temporary file that is synced to disk and renamed into place, so any file
// visible under its final name is complete.
//
// Usage:
//
//	manager, err := storage.NewManager("./photos")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = manager.SaveAsset(assetReader, "IMG_0001.JPG")
//	if err != nil {
//	    log.Printf("Failed to save asset: %v", err)
//	}
package storage
