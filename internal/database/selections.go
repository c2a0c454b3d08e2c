package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photobook/internal/logging"
)

// Page size bounds for book photo listings.
const (
	DefaultPageLimit = 240
	MaxPageLimit     = 500
)

// PageOptions controls a book photo listing.
type PageOptions struct {
	Offset       int
	Limit        int
	SelectedOnly bool
}

// ListBookPhotos returns one page of a book's photos: every photo whose
// capture date falls inside the book's inclusive range, optionally restricted
// to selected ones, ordered by capture date then id so successive pages
// reproduce the full list without duplicates or gaps.
func (d *Database) ListBookPhotos(ctx context.Context, book *Book, opts PageOptions) (*PhotoPage, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_book_photos", start, err) }()

	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}

	selectedFilter := ""
	if opts.SelectedOnly {
		selectedFilter = "AND COALESCE(s.selected, 0) = 1"
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var total int
	err = d.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM photos p
		LEFT JOIN selections s ON s.book_id = ? AND s.photo_id = p.id
		WHERE date(p.date_taken) >= date(?) AND date(p.date_taken) <= date(?)
		%s
	`, selectedFilter), book.ID, book.StartDate, book.EndDate).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("book photos count query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT p.id, p.thumbnail_path, p.date_taken, COALESCE(s.selected, 0) AS selected
		FROM photos p
		LEFT JOIN selections s ON s.book_id = ? AND s.photo_id = p.id
		WHERE date(p.date_taken) >= date(?) AND date(p.date_taken) <= date(?)
		%s
		ORDER BY p.date_taken ASC, p.id ASC
		LIMIT ? OFFSET ?
	`, selectedFilter), book.ID, book.StartDate, book.EndDate, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("book photos select query: %w", err)
	}
	defer rows.Close()

	photos := []BookPhoto{}
	for rows.Next() {
		var photo BookPhoto
		var thumbPath, dateTaken string
		var selected int
		if err = rows.Scan(&photo.ID, &thumbPath, &dateTaken, &selected); err != nil {
			return nil, fmt.Errorf("scan book photo: %w", err)
		}

		// The API serves thumbnails by base name under /thumbs/.
		if i := strings.LastIndexByte(thumbPath, '/'); i >= 0 {
			thumbPath = thumbPath[i+1:]
		}
		photo.Thumbnail = thumbPath
		photo.Selected = selected != 0
		if len(dateTaken) >= 10 {
			photo.DateTaken = dateTaken[:10]
		} else {
			photo.DateTaken = dateTaken
		}
		photos = append(photos, photo)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("book photos rows error: %w", err)
	}

	selectedCount, err := d.selectedCountNoLock(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	return &PhotoPage{
		Photos:        photos,
		SelectedCount: selectedCount,
		TotalPhotos:   total,
		Offset:        opts.Offset,
		Limit:         opts.Limit,
		HasMore:       opts.Offset+len(photos) < total,
	}, nil
}

// selectedCountNoLock counts selected rows for a book. Caller holds d.mu.
func (d *Database) selectedCountNoLock(ctx context.Context, bookID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM selections WHERE book_id = ? AND selected = 1",
		bookID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("selected count query: %w", err)
	}
	return count, nil
}

// SelectedCount counts rows currently marked selected for a book.
func (d *Database) SelectedCount(ctx context.Context, bookID string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("selected_count", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	count, err := d.selectedCountNoLock(ctx, bookID)
	return count, err
}

// FilterPhotoIDsInRange keeps only the ids whose capture date falls inside
// [startDate, endDate] inclusive. Ids unknown to the catalog drop out here
// too. Order of survivors follows the input order.
func (d *Database) FilterPhotoIDsInRange(ctx context.Context, ids []int64, startDate, endDate string) ([]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("filter_photo_ids", start, err) }()

	if len(ids) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	args := make([]interface{}, 0, len(ids)+2)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, startDate, endDate)

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id
		FROM photos
		WHERE id IN (%s)
		  AND date(date_taken) >= date(?)
		  AND date(date_taken) <= date(?)
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("filter photo ids query: %w", err)
	}
	defer rows.Close()

	inRange := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan filtered id: %w", err)
		}
		inRange[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("filter photo ids rows error: %w", err)
	}

	var surviving []int64
	for _, id := range ids {
		if inRange[id] {
			surviving = append(surviving, id)
		}
	}
	return surviving, nil
}

// UpsertSelections sets the selected flag for the given photo ids in one
// transaction, stamping each row with a fresh updated_at. Callers are
// responsible for scoping ids to the book's range first. Returns the number
// of rows applied.
func (d *Database) UpsertSelections(ctx context.Context, bookID string, ids []int64, selected bool) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_selections", start, err) }()

	if len(ids) == 0 {
		return 0, nil
	}

	selectedVal := 0
	if selected {
		selectedVal = 1
	}
	now := time.Now().UTC().Format(DateTakenLayout)

	tx, err := d.BeginBatch()
	if err != nil {
		return 0, fmt.Errorf("begin selections transaction: %w", err)
	}

	for _, id := range ids {
		_, err = tx.ExecContext(context.Background(), `
			INSERT INTO selections (book_id, photo_id, selected, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(book_id, photo_id) DO UPDATE SET
				selected = excluded.selected,
				updated_at = excluded.updated_at
		`, bookID, id, selectedVal, now)
		if err != nil {
			err = fmt.Errorf("upsert selection (%s, %d): %w", bookID, id, err)
			break
		}
	}

	if endErr := d.EndBatch(tx, err); endErr != nil {
		return 0, endErr
	}

	logging.Debug("Applied %d selection rows for book %s (selected=%v)", len(ids), bookID, selected)
	return len(ids), nil
}

// ClearSelections deletes every selection row for a book.
func (d *Database) ClearSelections(ctx context.Context, bookID string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_selections", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM selections WHERE book_id = ?", bookID)
	if err != nil {
		return fmt.Errorf("clear selections for book %q: %w", bookID, err)
	}
	return nil
}

// SelectedPhotoIDs returns the photo ids currently marked selected for a
// book, in id order.
func (d *Database) SelectedPhotoIDs(ctx context.Context, bookID string) ([]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("selected_photo_ids", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT photo_id FROM selections
		WHERE book_id = ? AND selected = 1
		ORDER BY photo_id
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("selected photo ids query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan selected photo id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("selected photo ids rows error: %w", err)
	}

	return ids, nil
}
