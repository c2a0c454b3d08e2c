package metadata

import (
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"photobook/internal/filesystem"
	"photobook/internal/logging"
)

// ExifDate reads the embedded capture timestamp from the image at path.
// DateTimeOriginal is preferred, falling back to the plain DateTime tag.
func ExifDate(path string) (time.Time, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	return x.DateTime()
}

// CaptureDate returns the best capture timestamp for the file at path:
// the embedded EXIF date when one can be read, modTime otherwise. Extraction
// failures are expected for formats without EXIF support and never propagate;
// a file always gets some usable date.
func CaptureDate(path string, modTime time.Time) time.Time {
	taken, err := ExifDate(path)
	if err != nil {
		logging.Debug("No EXIF date for %s, using mtime: %v", path, err)
		return modTime
	}
	return taken
}
