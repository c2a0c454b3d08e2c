// Package mediatypes provides shared type definitions and utilities for photo
// file handling across the photobook application.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains the supported
// extension set and pure utility functions with no dependencies beyond the
// standard library.
//
// # Catalog Candidates
//
// Only files whose extension appears in PhotoExtensions are picked up by the
// reconciliation walk:
//
//	if mediatypes.IsPhotoFile(path) {
//	    // File is a catalog candidate
//	}
//
// # MIME Types
//
// Use GetMimeType to get the appropriate MIME type for HTTP responses:
//
//	ext := mediatypes.NormalizeExt(filename)
//	mimeType := mediatypes.GetMimeType(ext) // e.g., "image/jpeg"
package mediatypes
