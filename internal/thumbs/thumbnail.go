package thumbs

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"photobook/internal/logging"
	"photobook/internal/metrics"

	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxEdge is the longest side of a generated thumbnail in pixels.
	// Sources smaller than this are stored at their original size.
	MaxEdge = 360

	// Quality is the JPEG quality used for generated thumbnails.
	Quality = 85
)

// ErrSourceMissing reports that the original photo disappeared between
// indexing and thumbnail generation. Callers treat this as a skip, not
// a failure; the next index run reconciles the catalog.
var ErrSourceMissing = errors.New("thumbnail source missing")

// Generator writes photo thumbnails into a single flat directory.
// Ensure is safe for concurrent use across distinct photo ids; the
// indexer bounds how many decodes run at once.
type Generator struct {
	dir string
}

func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory %s: %w", dir, err)
	}
	logging.Debug("Thumbnail generator ready, dir: %s", dir)
	return &Generator{dir: dir}, nil
}

// Dir returns the directory thumbnails are written to.
func (g *Generator) Dir() string {
	return g.dir
}

// FileName returns the stored name for a photo's thumbnail.
func FileName(photoID int64) string {
	return strconv.FormatInt(photoID, 10) + ".jpg"
}

// Ensure creates the thumbnail for a photo unless one already exists on
// disk, and returns the base name recorded in the catalog. An existing
// file is reused without inspecting the source.
func (g *Generator) Ensure(photoID int64, sourcePath string) (string, error) {
	name := FileName(photoID)
	dest := filepath.Join(g.dir, name)

	if _, err := os.Stat(dest); err == nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("reused").Inc()
		logging.Debug("Thumbnail exists, reusing: %s", name)
		return name, nil
	}

	if _, err := os.Stat(sourcePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.ThumbnailGenerationsTotal.WithLabelValues("source_missing").Inc()
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, sourcePath)
		}
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("source not accessible: %w", err)
	}

	start := time.Now()

	img, err := g.decodeSource(sourcePath)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to decode %s: %w", sourcePath, err)
	}

	thumb := imaging.Fit(img, MaxEdge, MaxEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: Quality}); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to encode thumbnail for %s: %w", sourcePath, err)
	}

	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to write thumbnail %s: %w", dest, err)
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail generated: %s (%dx%d, %d bytes)",
		name, thumb.Bounds().Dx(), thumb.Bounds().Dy(), buf.Len())
	return name, nil
}

// Remove deletes a photo's thumbnail if present. Failures other than
// absence are logged and ignored so catalog cleanup can proceed.
func (g *Generator) Remove(photoID int64) {
	dest := filepath.Join(g.dir, FileName(photoID))
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Failed to remove thumbnail %s: %v", dest, err)
	}
}

// decodeSource prefers the libvips path, which shrinks during decode
// and handles HEIC. The pure-Go fallback covers the common formats when
// libvips is unavailable or rejects a file.
func (g *Generator) decodeSource(path string) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := loadWithVips(path, MaxEdge)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return img, nil
}
