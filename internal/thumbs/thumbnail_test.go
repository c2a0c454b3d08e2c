package thumbs

import (
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image %s: %v", path, err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func decodeThumb(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open thumbnail %s: %v", path, err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode thumbnail %s: %v", path, err)
	}
	return img
}

func TestFileName(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{1, "1.jpg"},
		{42, "42.jpg"},
		{99999, "99999.jpg"},
	}

	for _, tt := range tests {
		if got := FileName(tt.id); got != tt.want {
			t.Errorf("FileName(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNewGeneratorCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "thumbs")

	g, err := NewGenerator(dir)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Thumbnail dir was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Thumbnail path is not a directory")
	}
	if g.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", g.Dir(), dir)
	}
}

func TestEnsureCreatesThumbnail(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "photo.jpg")
	writeJPEG(t, src, 800, 600)

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	name, err := g.Ensure(7, src)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if name != "7.jpg" {
		t.Errorf("Ensure returned name %q, want %q", name, "7.jpg")
	}

	thumb := decodeThumb(t, filepath.Join(g.Dir(), name))
	if w, h := thumb.Bounds().Dx(), thumb.Bounds().Dy(); w != 360 || h != 270 {
		t.Errorf("Thumbnail size = %dx%d, want 360x270", w, h)
	}
}

func TestEnsurePortraitOrientation(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "portrait.jpg")
	writeJPEG(t, src, 600, 800)

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	name, err := g.Ensure(8, src)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	thumb := decodeThumb(t, filepath.Join(g.Dir(), name))
	if w, h := thumb.Bounds().Dx(), thumb.Bounds().Dy(); w != 270 || h != 360 {
		t.Errorf("Thumbnail size = %dx%d, want 270x360", w, h)
	}
}

func TestEnsureNeverUpscales(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "small.jpg")
	writeJPEG(t, src, 100, 80)

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	name, err := g.Ensure(9, src)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	thumb := decodeThumb(t, filepath.Join(g.Dir(), name))
	if w, h := thumb.Bounds().Dx(), thumb.Bounds().Dy(); w != 100 || h != 80 {
		t.Errorf("Thumbnail size = %dx%d, want original 100x80", w, h)
	}
}

func TestEnsureReusesExistingFile(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "photo.jpg")
	writeJPEG(t, src, 800, 600)

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	sentinel := []byte("sentinel, not a real thumbnail")
	existing := filepath.Join(g.Dir(), FileName(11))
	if err := os.WriteFile(existing, sentinel, 0644); err != nil {
		t.Fatalf("Failed to seed thumbnail: %v", err)
	}

	name, err := g.Ensure(11, src)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if name != "11.jpg" {
		t.Errorf("Ensure returned name %q, want %q", name, "11.jpg")
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("Failed to read thumbnail: %v", err)
	}
	if string(data) != string(sentinel) {
		t.Error("Existing thumbnail was regenerated, expected reuse")
	}
}

func TestEnsureReusesExistingWithoutSource(t *testing.T) {
	tmp := t.TempDir()

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	existing := filepath.Join(g.Dir(), FileName(12))
	if err := os.WriteFile(existing, []byte("kept"), 0644); err != nil {
		t.Fatalf("Failed to seed thumbnail: %v", err)
	}

	// The reuse check must come before the source check so that an
	// already-thumbnailed photo never forces a source read.
	name, err := g.Ensure(12, filepath.Join(tmp, "gone.jpg"))
	if err != nil {
		t.Fatalf("Ensure failed despite existing thumbnail: %v", err)
	}
	if name != "12.jpg" {
		t.Errorf("Ensure returned name %q, want %q", name, "12.jpg")
	}
}

func TestEnsureSourceMissing(t *testing.T) {
	tmp := t.TempDir()

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	_, err = g.Ensure(13, filepath.Join(tmp, "missing.jpg"))
	if err == nil {
		t.Fatal("Ensure succeeded with a missing source")
	}
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("Expected ErrSourceMissing, got: %v", err)
	}
}

func TestEnsureUndecodableSource(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "broken.jpg")
	if err := os.WriteFile(src, []byte("not an image at all"), 0644); err != nil {
		t.Fatalf("Failed to write broken source: %v", err)
	}

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	_, err = g.Ensure(14, src)
	if err == nil {
		t.Fatal("Ensure succeeded on an undecodable source")
	}
	if errors.Is(err, ErrSourceMissing) {
		t.Error("Decode failure must not report ErrSourceMissing")
	}

	if _, err := os.Stat(filepath.Join(g.Dir(), FileName(14))); err == nil {
		t.Error("Failed generation left a thumbnail file behind")
	}
}

func TestRemove(t *testing.T) {
	tmp := t.TempDir()

	g, err := NewGenerator(filepath.Join(tmp, "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	path := filepath.Join(g.Dir(), FileName(21))
	if err := os.WriteFile(path, []byte("thumb"), 0644); err != nil {
		t.Fatalf("Failed to seed thumbnail: %v", err)
	}

	g.Remove(21)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Remove did not delete the thumbnail")
	}

	// Removing an absent thumbnail is a no-op.
	g.Remove(21)
	g.Remove(404)
}
