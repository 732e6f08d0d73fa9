//go:build integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattsolo1/grove-imgtag/pkg/search"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

func TestIntegration(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")

	albums := map[string]map[string]string{
		"holiday": {
			"config.yaml":       "tag separator: \"_\"\ntag types:\n  person: [\"[\", \"]\"]\n",
			"beach_[anna].png":  "beach",
			"sunset_[john].jpg": "sunset",
			"IMG_0003.jpeg":     "raw",
			"shopping-list.txt": "milk",
		},
		"family": {
			"config.yaml":       "tag separator: \"-\"\ntag types:\n  person: [\"(\", \")\"]\n",
			"(anna)-garden.png": "garden",
		},
	}

	for album, files := range albums {
		dir := filepath.Join(tmpDir, album)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create album: %v", err)
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write %s: %v", name, err)
			}
		}
	}

	open := func(album string) *service.Service {
		svc, err := service.New(&service.Config{
			Dir:      filepath.Join(tmpDir, album),
			DataDir:  dataDir,
			SortTags: true,
		}, nil)
		if err != nil {
			t.Fatalf("Failed to create service: %v", err)
		}
		return svc
	}

	// Test 1: Import and apply in each album
	t.Run("ImportAndApply", func(t *testing.T) {
		for album := range albums {
			svc := open(album)
			svc.ImportFromFilenames(false)
			if _, err := svc.Apply(false, false); err != nil {
				t.Fatalf("Apply failed in %s: %v", album, err)
			}
			svc.Close()
		}

		if _, err := os.Stat(filepath.Join(tmpDir, "holiday", "[john]_sunset.jpg")); err != nil {
			t.Errorf("Expected renamed file: %v", err)
		}
		if _, err := os.Stat(filepath.Join(tmpDir, "holiday", "shopping-list.txt")); err != nil {
			t.Errorf("Non-image files must be left alone: %v", err)
		}
	})

	// Test 2: Search spans albums through the shared index
	t.Run("SearchAcrossAlbums", func(t *testing.T) {
		svc := open("holiday")
		defer svc.Close()

		local, err := svc.Search(search.Query{Value: "anna", Exact: true, Type: "person"}, false)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(local) != 1 {
			t.Errorf("Expected 1 local result, got %d", len(local))
		}

		all, err := svc.Search(search.Query{Value: "anna", Exact: true, Type: "person"}, true)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("Expected 2 results across albums, got %d", len(all))
		}
	})

	// Test 3: A second run finds nothing to rename
	t.Run("ApplyIsStable", func(t *testing.T) {
		svc := open("holiday")
		defer svc.Close()

		report, err := svc.Apply(false, true)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if report.RenamedFiles != 0 {
			t.Errorf("Expected no renames, got %d", report.RenamedFiles)
		}
	})
}
