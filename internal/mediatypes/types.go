package mediatypes

import (
	"path/filepath"
	"strings"
)

// PhotoExtensions maps file extensions to whether they are catalog candidates.
// Only these formats are picked up by the reconciliation walk.
var PhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

// MimeTypes maps supported photo extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
}

// NormalizeExt returns the lowercase extension of path including the
// leading dot (e.g. ".jpg"), or "" if the path has no extension.
func NormalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsPhotoFile returns true if the path's extension (case-insensitive) is a
// supported photo format.
func IsPhotoFile(path string) bool {
	return PhotoExtensions[NormalizeExt(path)]
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
