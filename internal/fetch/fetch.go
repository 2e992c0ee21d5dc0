// Package fetch downloads remote manifests into a local cache.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const cacheTTL = 24 * time.Hour

// IsRemote reports whether location should be downloaded rather than opened.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetcher handles HTTP downloads of manifests.
type Fetcher struct {
	cacheDir string
	client   *http.Client
	ttl      time.Duration
}

// NewFetcher creates a fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 60 * time.Second},
		ttl:      cacheTTL,
	}
}

// CachePath returns where url is cached.
func (f *Fetcher) CachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, "manifests", hex.EncodeToString(sum[:8])+".txt")
}

// Fetch downloads url unless a fresh cached copy exists, and returns the
// local path.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	destPath := f.CachePath(url)

	if info, err := os.Stat(destPath); err == nil && time.Since(info.ModTime()) < f.ttl {
		return destPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: HTTP %d", url, resp.StatusCode)
	}

	// Write to temp file first, then rename
	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming file: %w", err)
	}

	return destPath, nil
}
