package export

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photobook/internal/database"
)

func setupBuilder(t *testing.T) (*database.Database, *Builder, string) {
	t.Helper()

	dataDir := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(dataDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})

	return db, New(db, dataDir), dataDir
}

// marchBook inserts and returns a book covering March 2024.
func marchBook(t *testing.T, db *database.Database) *database.Book {
	t.Helper()

	err := db.UpsertBooks(context.Background(), []database.Book{{
		ID:        "march",
		Child:     "Ana",
		Month:     3,
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
	}})
	if err != nil {
		t.Fatalf("UpsertBooks failed: %v", err)
	}

	book, err := db.GetBook(context.Background(), "march")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	return book
}

// addPhoto writes a small source file and catalogs it with the given capture
// timestamp.
func addPhoto(t *testing.T, db *database.Database, dir, name, dateTaken, content string) int64 {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create source dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	p := &database.Photo{
		FilePath:  path,
		DateTaken: dateTaken,
		FileMtime: 1,
		FileSize:  int64(len(content)),
	}
	if err := db.InsertPhoto(tx, p); err != nil {
		t.Fatalf("InsertPhoto failed: %v", err)
	}
	if err := db.EndBatch(tx, nil); err != nil {
		t.Fatalf("EndBatch failed: %v", err)
	}
	return p.ID
}

// readArchive returns the archive's entries as name -> content, plus the
// entry names in archive order (duplicates preserved).
func readArchive(t *testing.T, path string) (map[string]string, []string) {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open archive %s: %v", path, err)
	}
	defer r.Close()

	contents := make(map[string]string)
	var names []string
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		contents[f.Name] = string(data)
		names = append(names, f.Name)
	}
	return contents, names
}

// tempArchives lists leftover export temp files in the data dir.
func tempArchives(t *testing.T, dataDir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dataDir, tempPrefix+"*.zip"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	return matches
}

func TestSuggestedName(t *testing.T) {
	tests := []struct {
		name string
		book database.Book
		want string
	}{
		{
			name: "single digit month zero padded",
			book: database.Book{Child: "Ana", Month: 3, StartDate: "2024-03-01", EndDate: "2024-03-31"},
			want: "Ana_Month_03_2024-03-01_to_2024-03-31.zip",
		},
		{
			name: "two digit month",
			book: database.Book{Child: "Ben", Month: 12, StartDate: "2024-12-01", EndDate: "2024-12-31"},
			want: "Ben_Month_12_2024-12-01_to_2024-12-31.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestedName(&tt.book); got != tt.want {
				t.Errorf("SuggestedName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildExplicitIDs(t *testing.T) {
	db, builder, dataDir := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	idA := addPhoto(t, db, srcDir, "a.jpg", "2024-03-05T10:00:00", "photo-a")
	idB := addPhoto(t, db, srcDir, "b.jpg", "2024-03-06T10:00:00", "photo-b")

	archive, cleanup, err := builder.Build(ctx, book, []int64{idA, idB})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer cleanup()

	if archive.PhotoCount != 2 {
		t.Errorf("PhotoCount = %d, want 2", archive.PhotoCount)
	}
	if archive.SuggestedName != "Ana_Month_03_2024-03-01_to_2024-03-31.zip" {
		t.Errorf("SuggestedName = %q", archive.SuggestedName)
	}

	base := filepath.Base(archive.Path)
	if !strings.HasPrefix(base, tempPrefix) || !strings.HasSuffix(base, ".zip") {
		t.Errorf("Temp archive name %q lacks the export_*.zip shape", base)
	}
	if filepath.Dir(archive.Path) != dataDir {
		t.Errorf("Archive written to %s, want data dir %s", filepath.Dir(archive.Path), dataDir)
	}

	info, err := os.Stat(archive.Path)
	if err != nil {
		t.Fatalf("Archive missing on disk: %v", err)
	}
	if archive.SizeBytes != info.Size() {
		t.Errorf("SizeBytes = %d, want actual size %d", archive.SizeBytes, info.Size())
	}

	contents, _ := readArchive(t, archive.Path)
	if len(contents) != 2 {
		t.Fatalf("Archive has %d entries, want 2", len(contents))
	}
	if contents["a.jpg"] != "photo-a" || contents["b.jpg"] != "photo-b" {
		t.Errorf("Archive contents wrong: %v", contents)
	}
}

func TestBuildDefaultsToSelection(t *testing.T) {
	db, builder, _ := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	idA := addPhoto(t, db, srcDir, "picked.jpg", "2024-03-05T10:00:00", "picked")
	addPhoto(t, db, srcDir, "skipped.jpg", "2024-03-06T10:00:00", "skipped")

	if _, err := db.UpsertSelections(ctx, book.ID, []int64{idA}, true); err != nil {
		t.Fatalf("UpsertSelections failed: %v", err)
	}

	archive, cleanup, err := builder.Build(ctx, book, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer cleanup()

	contents, _ := readArchive(t, archive.Path)
	if len(contents) != 1 {
		t.Fatalf("Archive has %d entries, want only the selected photo", len(contents))
	}
	if _, ok := contents["picked.jpg"]; !ok {
		t.Errorf("Archive missing picked.jpg: %v", contents)
	}
}

func TestBuildScopesExplicitIDsToRange(t *testing.T) {
	db, builder, _ := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	inRange := addPhoto(t, db, srcDir, "march.jpg", "2024-03-15T10:00:00", "march")
	outOfRange := addPhoto(t, db, srcDir, "april.jpg", "2024-04-02T10:00:00", "april")

	archive, cleanup, err := builder.Build(ctx, book, []int64{inRange, outOfRange})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer cleanup()

	contents, _ := readArchive(t, archive.Path)
	if len(contents) != 1 {
		t.Fatalf("Archive has %d entries, want 1 (out-of-range id excluded)", len(contents))
	}
	if _, ok := contents["march.jpg"]; !ok {
		t.Errorf("Archive missing march.jpg: %v", contents)
	}
}

func TestBuildNothingSelected(t *testing.T) {
	db, builder, dataDir := setupBuilder(t)
	book := marchBook(t, db)

	_, _, err := builder.Build(context.Background(), book, nil)
	if !errors.Is(err, ErrNoExportablePhotos) {
		t.Fatalf("Expected ErrNoExportablePhotos, got %v", err)
	}
	if leftovers := tempArchives(t, dataDir); len(leftovers) != 0 {
		t.Errorf("Empty export left temp files behind: %v", leftovers)
	}
}

func TestBuildExplicitIDsAllOutOfRange(t *testing.T) {
	db, builder, dataDir := setupBuilder(t)
	book := marchBook(t, db)
	srcDir := t.TempDir()

	outOfRange := addPhoto(t, db, srcDir, "april.jpg", "2024-04-02T10:00:00", "april")

	_, _, err := builder.Build(context.Background(), book, []int64{outOfRange})
	if !errors.Is(err, ErrNoExportablePhotos) {
		t.Fatalf("Expected ErrNoExportablePhotos, got %v", err)
	}
	if leftovers := tempArchives(t, dataDir); len(leftovers) != 0 {
		t.Errorf("Out-of-range export left temp files behind: %v", leftovers)
	}
}

func TestBuildAllSourcesMissing(t *testing.T) {
	db, builder, dataDir := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	id := addPhoto(t, db, srcDir, "gone.jpg", "2024-03-05T10:00:00", "gone")
	if err := os.Remove(filepath.Join(srcDir, "gone.jpg")); err != nil {
		t.Fatalf("Failed to remove source: %v", err)
	}

	_, _, err := builder.Build(ctx, book, []int64{id})
	if !errors.Is(err, ErrNoExportablePhotos) {
		t.Fatalf("Expected ErrNoExportablePhotos, got %v", err)
	}
	if leftovers := tempArchives(t, dataDir); len(leftovers) != 0 {
		t.Errorf("Stale export left temp files behind: %v", leftovers)
	}
}

func TestBuildDropsMissingSources(t *testing.T) {
	db, builder, _ := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	keep := addPhoto(t, db, srcDir, "keep.jpg", "2024-03-05T10:00:00", "keep")
	gone := addPhoto(t, db, srcDir, "gone.jpg", "2024-03-06T10:00:00", "gone")
	if err := os.Remove(filepath.Join(srcDir, "gone.jpg")); err != nil {
		t.Fatalf("Failed to remove source: %v", err)
	}

	archive, cleanup, err := builder.Build(ctx, book, []int64{keep, gone})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer cleanup()

	if archive.PhotoCount != 1 {
		t.Errorf("PhotoCount = %d, want 1", archive.PhotoCount)
	}
	contents, _ := readArchive(t, archive.Path)
	if _, ok := contents["gone.jpg"]; ok {
		t.Errorf("Archive contains a vanished source: %v", contents)
	}
	if contents["keep.jpg"] != "keep" {
		t.Errorf("Archive missing surviving source: %v", contents)
	}
}

func TestBuildDuplicateBaseNames(t *testing.T) {
	db, builder, _ := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	idA := addPhoto(t, db, srcDir, filepath.Join("trip1", "same.jpg"), "2024-03-05T10:00:00", "first")
	idB := addPhoto(t, db, srcDir, filepath.Join("trip2", "same.jpg"), "2024-03-06T10:00:00", "second")

	archive, cleanup, err := builder.Build(ctx, book, []int64{idA, idB})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer cleanup()

	// Colliding base names both land in the archive under the same flat
	// name; extractors keep the last one.
	_, names := readArchive(t, archive.Path)
	if len(names) != 2 {
		t.Fatalf("Archive has %d entries, want 2", len(names))
	}
	for _, name := range names {
		if name != "same.jpg" {
			t.Errorf("Entry name = %q, want same.jpg", name)
		}
	}
}

func TestCleanupRemovesArchive(t *testing.T) {
	db, builder, dataDir := setupBuilder(t)
	ctx := context.Background()
	book := marchBook(t, db)
	srcDir := t.TempDir()

	id := addPhoto(t, db, srcDir, "a.jpg", "2024-03-05T10:00:00", "photo-a")

	archive, cleanup, err := builder.Build(ctx, book, []int64{id})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cleanup()
	if _, err := os.Stat(archive.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Archive still present after cleanup: %v", err)
	}
	if leftovers := tempArchives(t, dataDir); len(leftovers) != 0 {
		t.Errorf("Cleanup left temp files behind: %v", leftovers)
	}

	// A second call is a no-op.
	cleanup()
}
