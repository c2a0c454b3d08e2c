// Package books loads the photo book definitions from the JSON config
// file.
//
// The config is the sole source of which books exist; the database only
// persists them so selections and completion flags survive restarts.
// Loading is deliberately forgiving: malformed entries are skipped with
// a warning rather than failing startup, and the collected warnings
// feed the health endpoint so misconfiguration is visible without log
// digging.
package books
