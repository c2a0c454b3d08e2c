package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photobook/internal/database"
	"photobook/internal/export"
	"photobook/internal/indexer"
	"photobook/internal/startup"
	"photobook/internal/thumbs"
)

type testEnv struct {
	h       *Handlers
	db      *database.Database
	coord   *indexer.Coordinator
	root    string
	dataDir string
	config  *startup.Config
}

func newTestEnv(t *testing.T, bookWarnings []string) *testEnv {
	t.Helper()

	tmp := t.TempDir()
	root := filepath.Join(tmp, "photos")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("Failed to create photo root: %v", err)
	}
	dataDir := filepath.Join(tmp, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatalf("Failed to create data dir: %v", err)
	}

	db, err := database.New(context.Background(), filepath.Join(dataDir, "photobook.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gen, err := thumbs.NewGenerator(filepath.Join(dataDir, "thumbs"))
	if err != nil {
		t.Fatalf("Failed to create thumbnail generator: %v", err)
	}

	config := &startup.Config{
		PhotoRoot:    root,
		DataDir:      dataDir,
		ThumbsDir:    filepath.Join(dataDir, "thumbs"),
		BooksConfig:  filepath.Join(tmp, "books.json"),
		Port:         "8080",
		MetricsPort:  "9090",
		DatabasePath: filepath.Join(dataDir, "photobook.db"),
	}

	coord := indexer.New(db, gen, root, nil)
	h := New(db, coord, export.New(db, dataDir), config, bookWarnings)

	return &testEnv{h: h, db: db, coord: coord, root: root, dataDir: dataDir, config: config}
}

// seedBook inserts a March 2024 book and returns it.
func seedBook(t *testing.T, db *database.Database) *database.Book {
	t.Helper()

	ctx := context.Background()
	err := db.UpsertBooks(ctx, []database.Book{{
		ID:        "2024-03-ana",
		Child:     "Ana",
		Month:     3,
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
	}})
	if err != nil {
		t.Fatalf("UpsertBooks failed: %v", err)
	}

	book, err := db.GetBook(ctx, "2024-03-ana")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	return book
}

// seedPhoto writes a real file under the photo root and catalogs it.
func seedPhoto(t *testing.T, env *testEnv, name, dateTaken string) int64 {
	t.Helper()

	path := filepath.Join(env.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent dir: %v", err)
	}
	content := []byte("photo bytes: " + name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write photo file: %v", err)
	}

	tx, err := env.db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	photo := &database.Photo{
		FilePath:  path,
		DateTaken: dateTaken,
		FileMtime: 1700000000.0,
		FileSize:  int64(len(content)),
	}
	if err := env.db.InsertPhoto(tx, photo); err != nil {
		t.Fatalf("InsertPhoto failed: %v", err)
	}
	if err := env.db.EndBatch(tx, nil); err != nil {
		t.Fatalf("EndBatch failed: %v", err)
	}
	return photo.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

// waitForRunDone blocks until no index run is in flight.
func waitForRunDone(t *testing.T, coord *indexer.Coordinator) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if !coord.IsRunning() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for index run to finish, status: %+v", coord.Status())
}
