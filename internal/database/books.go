package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photobook/internal/logging"
)

// UpsertBooks creates or updates book rows by id in a single transaction.
// Reloading configuration must never lose user progress, so the completed
// flag is deliberately left out of the update branch.
func (d *Database) UpsertBooks(ctx context.Context, books []Book) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_books", start, err) }()

	if len(books) == 0 {
		return nil
	}

	tx, err := d.BeginBatch()
	if err != nil {
		return fmt.Errorf("begin books transaction: %w", err)
	}

	for _, book := range books {
		// Background context: the transaction lifecycle is managed by EndBatch.
		_, err = tx.ExecContext(context.Background(), `
			INSERT INTO books (id, child, month, start_date, end_date)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				child = excluded.child,
				month = excluded.month,
				start_date = excluded.start_date,
				end_date = excluded.end_date
		`, book.ID, book.Child, book.Month, book.StartDate, book.EndDate)
		if err != nil {
			err = fmt.Errorf("upsert book %q: %w", book.ID, err)
			break
		}
	}

	if endErr := d.EndBatch(tx, err); endErr != nil {
		return endErr
	}

	logging.Debug("Upserted %d books", len(books))
	return nil
}

// GetBook retrieves a single book by id. Returns ErrBookNotFound for an
// unknown id.
func (d *Database) GetBook(ctx context.Context, id string) (*Book, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_book", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var b Book
	var completed int
	err = d.db.QueryRowContext(ctx, `
		SELECT id, child, month, start_date, end_date, completed
		FROM books WHERE id = ?
	`, id).Scan(&b.ID, &b.Child, &b.Month, &b.StartDate, &b.EndDate, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrBookNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get book %q: %w", id, err)
	}

	b.Completed = completed != 0
	return &b, nil
}

// ListBookSummaries returns all books with their photo and selection counts,
// ordered by child then month.
func (d *Database) ListBookSummaries(ctx context.Context) ([]BookSummary, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_books", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			b.id, b.child, b.month, b.start_date, b.end_date, b.completed,
			(
				SELECT COUNT(*)
				FROM photos p
				WHERE date(p.date_taken) >= date(b.start_date)
				  AND date(p.date_taken) <= date(b.end_date)
			) AS photo_count,
			(
				SELECT COUNT(*)
				FROM selections s
				WHERE s.book_id = b.id AND s.selected = 1
			) AS selected_count
		FROM books b
		ORDER BY b.child, b.month
	`)
	if err != nil {
		return nil, fmt.Errorf("list books query: %w", err)
	}
	defer rows.Close()

	summaries := []BookSummary{}
	for rows.Next() {
		var s BookSummary
		var completed int
		if err = rows.Scan(&s.ID, &s.Child, &s.Month, &s.StartDate, &s.EndDate,
			&completed, &s.PhotoCount, &s.SelectedCount); err != nil {
			return nil, fmt.Errorf("scan book summary: %w", err)
		}
		s.Completed = completed != 0
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list books rows error: %w", err)
	}

	return summaries, nil
}

// SetBookCompletion sets the completion flag. Returns ErrBookNotFound for an
// unknown id.
func (d *Database) SetBookCompletion(ctx context.Context, id string, completed bool) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_book_completion", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	completedVal := 0
	if completed {
		completedVal = 1
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE books SET completed = ? WHERE id = ?", completedVal, id)
	if err != nil {
		return fmt.Errorf("set completion for book %q: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = ErrBookNotFound
		return err
	}

	return nil
}
