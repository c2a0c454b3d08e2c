package startup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	// Check that all fields are populated
	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	// Verify that runtime values are correct
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				// Ensure the variable is not set
				os.Unsetenv(tt.key)
				t.Cleanup(func() {
					os.Unsetenv(tt.key)
				})
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestRouteInfo(t *testing.T) {
	route := RouteInfo{
		Method: "GET",
		Path:   "/api/test",
		Name:   "TestRoute",
	}

	if route.Method != "GET" {
		t.Errorf("Expected Method=GET, got %s", route.Method)
	}
	if route.Path != "/api/test" {
		t.Errorf("Expected Path=/api/test, got %s", route.Path)
	}
	if route.Name != "TestRoute" {
		t.Errorf("Expected Name=TestRoute, got %s", route.Name)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	tmp := t.TempDir()
	photoRoot := filepath.Join(tmp, "photos")
	if err := os.MkdirAll(photoRoot, 0755); err != nil {
		t.Fatalf("Failed to create photo root: %v", err)
	}

	t.Setenv("PHOTO_ROOT", photoRoot)
	t.Setenv("DATA_DIR", filepath.Join(tmp, "data"))
	t.Setenv("THUMBS_DIR", "")
	t.Setenv("BOOKS_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("METRICS_PORT", "")
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("INDEX_ON_STARTUP", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.PhotoRoot != photoRoot {
		t.Errorf("PhotoRoot = %q, want %q", config.PhotoRoot, photoRoot)
	}
	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", config.MetricsPort)
	}
	if !config.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true by default")
	}
	if !config.IndexOnStartup {
		t.Error("IndexOnStartup = false, want true by default")
	}

	wantThumbs := filepath.Join(config.DataDir, "thumbs")
	if config.ThumbsDir != wantThumbs {
		t.Errorf("ThumbsDir = %q, want %q", config.ThumbsDir, wantThumbs)
	}
	wantDB := filepath.Join(config.DataDir, "photobook.db")
	if config.DatabasePath != wantDB {
		t.Errorf("DatabasePath = %q, want %q", config.DatabasePath, wantDB)
	}
}

func TestLoadConfigCreatesDirectories(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "data")

	t.Setenv("PHOTO_ROOT", "")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("THUMBS_DIR", "")
	t.Setenv("BOOKS_CONFIG", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if info, err := os.Stat(config.DataDir); err != nil || !info.IsDir() {
		t.Errorf("Data directory was not created: %v", err)
	}
	if info, err := os.Stat(config.ThumbsDir); err != nil || !info.IsDir() {
		t.Errorf("Thumbnail directory was not created: %v", err)
	}
}

func TestLoadConfigMissingPhotoRootIsNotFatal(t *testing.T) {
	tmp := t.TempDir()

	t.Setenv("PHOTO_ROOT", filepath.Join(tmp, "does-not-exist"))
	t.Setenv("DATA_DIR", filepath.Join(tmp, "data"))
	t.Setenv("THUMBS_DIR", "")
	t.Setenv("BOOKS_CONFIG", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed on missing photo root: %v", err)
	}
	if config.PhotoRoot == "" {
		t.Error("PhotoRoot not preserved for health reporting")
	}
}

func TestCheckPhotoRoot(t *testing.T) {
	tmp := t.TempDir()

	file := filepath.Join(tmp, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"Existing directory", tmp, false},
		{"Missing directory", filepath.Join(tmp, "missing"), true},
		{"Path is a file", file, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPhotoRoot(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkPhotoRoot(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
