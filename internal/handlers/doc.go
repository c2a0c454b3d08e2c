// Package handlers provides HTTP request handlers for the photobook API.
//
// It includes handlers for:
//   - Book listing and paged photo browsing
//   - Selection updates and book completion
//   - Index triggering and status polling
//   - ZIP export of selected photos
//   - Health checks and Prometheus metrics
package handlers
