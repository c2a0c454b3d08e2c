// Package thumbs generates and manages photo thumbnails.
//
// Thumbnails are JPEG files capped at 360 pixels on the long edge and
// stored flat in a single directory, named after the photo's catalog id
// ("<id>.jpg"). Because names derive from immutable ids, generation is
// idempotent: an existing file is reused as-is, and re-indexing an
// unchanged library does no image work.
//
// Decoding prefers libvips (via govips) when it has been initialized,
// which shrinks large sources during decode and adds HEIC support. When
// libvips is unavailable the pure-Go imaging path handles JPEG, PNG,
// GIF and WebP sources.
package thumbs
