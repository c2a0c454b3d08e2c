package database

import "time"

// DateTakenLayout is the storage format for capture timestamps. Capture dates
// carry no zone information, so records keep a naive ISO-8601 form that
// SQLite's date() understands.
const DateTakenLayout = "2006-01-02T15:04:05"

// DateOnlyLayout is the storage format for book range boundaries.
const DateOnlyLayout = "2006-01-02"

// Photo is one catalog row for a discovered file. An empty ThumbnailPath
// means the thumbnail is pending generation.
type Photo struct {
	ID            int64   `json:"id"`
	FilePath      string  `json:"file_path"`
	DateTaken     string  `json:"date_taken"`
	ThumbnailPath string  `json:"thumbnail_path"`
	FileMtime     float64 `json:"file_mtime"`
	FileSize      int64   `json:"file_size"`
}

// Book is a date-bounded grouping of photos curated for export.
type Book struct {
	ID        string `json:"id"`
	Child     string `json:"child"`
	Month     int    `json:"month"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Completed bool   `json:"completed"`
}

// BookSummary is a Book plus the computed counts shown on the books listing.
type BookSummary struct {
	Book
	PhotoCount    int `json:"photo_count"`
	SelectedCount int `json:"selected_count"`
}

// Selection is one per-(book, photo) toggle row.
type Selection struct {
	BookID    string `json:"book_id"`
	PhotoID   int64  `json:"photo_id"`
	Selected  bool   `json:"selected"`
	UpdatedAt string `json:"updated_at"`
}

// BookPhoto is one entry of a book's photo page. Thumbnail is the base file
// name under the thumbnail directory, empty while generation is pending.
// DateTaken is truncated to the date (YYYY-MM-DD).
type BookPhoto struct {
	ID        int64  `json:"id"`
	Thumbnail string `json:"thumbnail"`
	Selected  bool   `json:"selected"`
	DateTaken string `json:"date_taken"`
}

// PhotoPage is one page of a book's photos with stable-pagination bookkeeping.
type PhotoPage struct {
	Photos        []BookPhoto `json:"photos"`
	SelectedCount int         `json:"selected_count"`
	TotalPhotos   int         `json:"total_photos"`
	Offset        int         `json:"offset"`
	Limit         int         `json:"limit"`
	HasMore       bool        `json:"has_more"`
}

// CatalogStats summarizes catalog contents for metrics and health reporting.
type CatalogStats struct {
	TotalPhotos       int `json:"total_photos"`
	PendingThumbnails int `json:"pending_thumbnails"`
	TotalBooks        int `json:"total_books"`
	TotalSelected     int `json:"total_selected"`
}

// FileMtimeOf converts a file modification time to the catalog's stored
// representation (fractional seconds). Change detection compares these values
// for exact equality, so every caller must derive them the same way.
func FileMtimeOf(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
