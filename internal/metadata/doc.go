// Package metadata derives per-photo metadata from image files.
//
// The only metadata the catalog needs is the capture date. CaptureDate
// prefers the embedded EXIF timestamp (DateTimeOriginal, then DateTime) and
// falls back to the file's modification time when no EXIF data can be read,
// so extraction can never fail a reconciliation run.
package metadata
