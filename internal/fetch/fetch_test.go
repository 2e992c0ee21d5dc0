package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestFetcher_Fetch(t *testing.T) {
	// Arrange
	content := []byte("numpy>=1.24\nrequests\n")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir())

	// Act
	path, err := f.Fetch(context.Background(), server.URL+"/requirements.txt")

	// Assert
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("file content = %q, want %q", data, content)
	}
}

func TestFetcher_Fetch_Cached(t *testing.T) {
	// Arrange: Pre-create a fresh cache entry
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Write([]byte("new content"))
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir())
	url := server.URL + "/requirements.txt"
	if _, err := f.Fetch(context.Background(), url); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.CachePath(url), []byte("cached"), 0644); err != nil {
		t.Fatal(err)
	}

	// Act
	path, err := f.Fetch(context.Background(), url)

	// Assert
	if err != nil {
		t.Errorf("Fetch() error = %v", err)
	}
	if requestCount != 1 {
		t.Errorf("server was called %d times, want 1 (should use cache)", requestCount)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "cached" {
		t.Errorf("file content = %q, want cached copy", data)
	}
}

func TestFetcher_Fetch_Stale(t *testing.T) {
	// Arrange: Pre-create an expired cache entry
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir())
	url := server.URL + "/requirements.txt"
	if _, err := f.Fetch(context.Background(), url); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * cacheTTL)
	if err := os.Chtimes(f.CachePath(url), old, old); err != nil {
		t.Fatal(err)
	}

	// Act
	path, err := f.Fetch(context.Background(), url)

	// Assert
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(info.ModTime()) > time.Minute {
		t.Errorf("stale cache entry was not refreshed")
	}
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir())
	url := server.URL + "/missing.txt"

	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Error("Fetch() error = nil, want HTTP error")
	}
	if _, err := os.Stat(f.CachePath(url)); !os.IsNotExist(err) {
		t.Errorf("cache file exists after failed download")
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"https://example.com/requirements.txt", true},
		{"http://example.com/requirements.txt", true},
		{"requirements.txt", false},
		{"/abs/requirements.txt", false},
		{"file:///tmp/requirements.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			if got := IsRemote(tt.location); got != tt.want {
				t.Errorf("IsRemote(%q) = %v, want %v", tt.location, got, tt.want)
			}
		})
	}
}
