// Package export builds downloadable ZIP bundles of a book's chosen photos.
//
// An archive is assembled into a uniquely named temp file in the data
// directory and handed to the caller together with a cleanup func, so the
// HTTP layer can stream it and remove it afterwards regardless of how the
// request ends. Entries are flat (base name only) and deflate-compressed;
// duplicate base names are an accepted limitation where the last entry wins
// on extraction.
package export
