package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"photobook/internal/database"
	"photobook/internal/filesystem"
	"photobook/internal/logging"
	"photobook/internal/metrics"
)

// tempPrefix marks archive temp files in the data directory so stale ones are
// recognizable after a crash.
const tempPrefix = "export_"

// ErrNoExportablePhotos is returned when the effective photo set is empty,
// whether because nothing is selected, every id falls outside the book's
// range, or every source file has disappeared since indexing.
var ErrNoExportablePhotos = errors.New("no exportable photos")

// Archive describes a built export bundle sitting in a temp file. The caller
// owns delivery; the cleanup func returned alongside removes the temp file
// and must be called on every exit path.
type Archive struct {
	Path          string
	SuggestedName string
	PhotoCount    int
	SizeBytes     int64
}

// Builder bundles a book's chosen photos into flat ZIP archives.
type Builder struct {
	db      *database.Database
	tempDir string
}

// New creates a Builder writing temp archives into tempDir.
func New(db *database.Database, tempDir string) *Builder {
	return &Builder{db: db, tempDir: tempDir}
}

// SuggestedName returns the download file name for a book's archive.
func SuggestedName(book *database.Book) string {
	return fmt.Sprintf("%s_Month_%02d_%s_to_%s.zip",
		book.Child, book.Month, book.StartDate, book.EndDate)
}

// Build assembles a compressed ZIP of the book's chosen photos. Explicit ids
// are restricted to the book's date range; an empty id list falls back to the
// book's current selection, restricted the same way. Source files that no
// longer exist on disk are dropped. Zero surviving photos yields
// ErrNoExportablePhotos and leaves nothing behind.
func (b *Builder) Build(ctx context.Context, book *database.Book, ids []int64) (*Archive, func(), error) {
	if len(ids) == 0 {
		selected, err := b.db.SelectedPhotoIDs(ctx, book.ID)
		if err != nil {
			metrics.ExportArchivesTotal.WithLabelValues("error").Inc()
			return nil, nil, fmt.Errorf("load selected ids for book %s: %w", book.ID, err)
		}
		ids = selected
	}

	validIDs, err := b.db.FilterPhotoIDsInRange(ctx, ids, book.StartDate, book.EndDate)
	if err != nil {
		metrics.ExportArchivesTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("scope export ids to book %s: %w", book.ID, err)
	}
	if len(validIDs) == 0 {
		metrics.ExportArchivesTotal.WithLabelValues("empty").Inc()
		return nil, nil, ErrNoExportablePhotos
	}

	paths, err := b.db.PhotoPathsByIDs(ctx, validIDs)
	if err != nil {
		metrics.ExportArchivesTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("resolve export paths for book %s: %w", book.ID, err)
	}

	var sources []string
	for _, path := range paths {
		if _, statErr := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); statErr != nil {
			logging.Warn("Export skipping missing source %s: %v", path, statErr)
			continue
		}
		sources = append(sources, path)
	}
	if len(sources) == 0 {
		metrics.ExportArchivesTotal.WithLabelValues("empty").Inc()
		return nil, nil, ErrNoExportablePhotos
	}

	archivePath := filepath.Join(b.tempDir, tempPrefix+uuid.NewString()+".zip")
	size, err := writeArchive(archivePath, sources)
	if err != nil {
		removeArchive(archivePath)
		metrics.ExportArchivesTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	metrics.ExportArchivesTotal.WithLabelValues("success").Inc()
	metrics.ExportArchiveBytes.Observe(float64(size))
	metrics.ExportPhotosPerArchive.Observe(float64(len(sources)))
	logging.Info("Built export archive for book %s: %d photos, %d bytes", book.ID, len(sources), size)

	cleanup := func() { removeArchive(archivePath) }
	return &Archive{
		Path:          archivePath,
		SuggestedName: SuggestedName(book),
		PhotoCount:    len(sources),
		SizeBytes:     size,
	}, cleanup, nil
}

// writeArchive creates the ZIP at path with one deflate-compressed entry per
// source, named by base name only. Duplicate base names produce duplicate
// entries; extraction keeps the last.
func writeArchive(path string, sources []string) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create archive file: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, src := range sources {
		if err := addEntry(zw, src); err != nil {
			_ = zw.Close()
			_ = out.Close()
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("finalize archive: %w", err)
	}

	info, err := out.Stat()
	if err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("stat archive file: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close archive file: %w", err)
	}
	return info.Size(), nil
}

func addEntry(zw *zip.Writer, src string) error {
	f, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("open export source %s: %w", src, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close export source %s: %v", src, err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat export source %s: %w", src, err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("archive header for %s: %w", src, err)
	}
	hdr.Name = filepath.Base(src)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add archive entry %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write archive entry %s: %w", hdr.Name, err)
	}
	return nil
}

func removeArchive(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Failed to remove export archive %s: %v", path, err)
	}
}
