package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"photobook/internal/metrics"
)

// DeleteChunkSize bounds the number of bound variables per IN (...) statement.
// SQLite's default variable limit is 999; staying well under it keeps the
// missing-path cleanup safe on any build of the driver.
const DeleteChunkSize = 400

// LoadPhotoIndex returns every catalog row keyed by file path. The
// reconciliation walk uses this for O(1) lookups per observed file.
func (d *Database) LoadPhotoIndex(ctx context.Context) (map[string]*Photo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_photo_index", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, file_path, date_taken, thumbnail_path, file_mtime, file_size
		FROM photos
	`)
	if err != nil {
		return nil, fmt.Errorf("load photo index: %w", err)
	}
	defer rows.Close()

	index := make(map[string]*Photo)
	for rows.Next() {
		var p Photo
		if err = rows.Scan(&p.ID, &p.FilePath, &p.DateTaken, &p.ThumbnailPath, &p.FileMtime, &p.FileSize); err != nil {
			return nil, fmt.Errorf("scan photo row: %w", err)
		}
		index[p.FilePath] = &p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("photo index rows error: %w", err)
	}

	return index, nil
}

// InsertPhoto adds a newly discovered file within a batch transaction. The
// thumbnail reference starts empty ("pending thumbnail") and the generated id
// is written back into p.
func (d *Database) InsertPhoto(tx *sql.Tx, p *Photo) error {
	result, err := tx.ExecContext(context.Background(), `
		INSERT INTO photos (file_path, date_taken, thumbnail_path, file_mtime, file_size)
		VALUES (?, ?, '', ?, ?)
	`, p.FilePath, p.DateTaken, p.FileMtime, p.FileSize)
	if err != nil {
		return err
	}

	p.ID, err = result.LastInsertId()
	return err
}

// UpdatePhotoContent refreshes a changed file's derived state within a batch
// transaction: new capture date and mtime/size, thumbnail reference reset to
// empty so the backfill pass regenerates it.
func (d *Database) UpdatePhotoContent(tx *sql.Tx, id int64, dateTaken string, mtime float64, size int64) error {
	_, err := tx.ExecContext(context.Background(), `
		UPDATE photos
		SET date_taken = ?, thumbnail_path = '', file_mtime = ?, file_size = ?
		WHERE id = ?
	`, dateTaken, mtime, size, id)
	return err
}

// DeletePhotosByPath removes catalog rows whose paths were not observed by
// the walk, together with their selection rows. Both deletes happen in the
// caller's transaction so no dangling-selection window exists. paths must not
// exceed DeleteChunkSize; callers chunk larger sets.
func (d *Database) DeletePhotosByPath(tx *sql.Tx, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	if len(paths) > DeleteChunkSize {
		return 0, fmt.Errorf("delete chunk too large: %d > %d", len(paths), DeleteChunkSize)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(paths)), ",")

	args := make([]interface{}, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	_, err := tx.ExecContext(context.Background(), fmt.Sprintf(`
		DELETE FROM selections WHERE photo_id IN (
			SELECT id FROM photos WHERE file_path IN (%s)
		)
	`, placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("delete selections for missing photos: %w", err)
	}

	result, err := tx.ExecContext(context.Background(), fmt.Sprintf(
		"DELETE FROM photos WHERE file_path IN (%s)", placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("delete missing photos: %w", err)
	}

	removed, err := result.RowsAffected()
	if err == nil && removed > 0 {
		metrics.DBRowsAffected.WithLabelValues("delete_photos").Observe(float64(removed))
	}
	return removed, err
}

// PendingThumbnails returns id and source path for every record whose
// thumbnail reference is empty, in id order.
func (d *Database) PendingThumbnails(ctx context.Context) ([]Photo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("pending_thumbnails", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, file_path
		FROM photos
		WHERE thumbnail_path = ''
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("pending thumbnails query: %w", err)
	}
	defer rows.Close()

	var pending []Photo
	for rows.Next() {
		var p Photo
		if err = rows.Scan(&p.ID, &p.FilePath); err != nil {
			return nil, fmt.Errorf("scan pending thumbnail row: %w", err)
		}
		pending = append(pending, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pending thumbnails rows error: %w", err)
	}

	return pending, nil
}

// SetThumbnail persists a generated thumbnail reference within a batch
// transaction.
func (d *Database) SetThumbnail(tx *sql.Tx, id int64, thumbnailPath string) error {
	_, err := tx.ExecContext(context.Background(),
		"UPDATE photos SET thumbnail_path = ? WHERE id = ?",
		thumbnailPath, id,
	)
	return err
}

// GetPhotoByPath retrieves a single photo by its file path.
func (d *Database) GetPhotoByPath(ctx context.Context, path string) (*Photo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_photo_by_path", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p Photo
	err = d.db.QueryRowContext(ctx, `
		SELECT id, file_path, date_taken, thumbnail_path, file_mtime, file_size
		FROM photos WHERE file_path = ?
	`, path).Scan(&p.ID, &p.FilePath, &p.DateTaken, &p.ThumbnailPath, &p.FileMtime, &p.FileSize)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PhotoPathsByIDs resolves photo ids to their stored file paths. Unknown ids
// are simply absent from the result.
func (d *Database) PhotoPathsByIDs(ctx context.Context, ids []int64) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("photo_paths_by_ids", start, err) }()

	if len(ids) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT file_path FROM photos WHERE id IN (%s) ORDER BY id", placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("photo paths query: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan photo path: %w", err)
		}
		paths = append(paths, path)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("photo paths rows error: %w", err)
	}

	return paths, nil
}
