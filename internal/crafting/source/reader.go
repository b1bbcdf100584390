// Package source retrieves the raw Lua prototype files of the game data.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultBaseURL serves the published game data.
const DefaultBaseURL = "https://raw.githubusercontent.com/wube/factorio-data/master/"

// Reader returns the content of a data file given its slash-separated path
// relative to the data root, e.g. "base/prototypes/item.lua".
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// DirReader reads data files from a local checkout.
type DirReader struct {
	Root string
}

// Read implements Reader.
func (d DirReader) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(d.Root, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

// HTTPReader downloads data files relative to a base URL.
type HTTPReader struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPReader creates an HTTPReader with a bounded request timeout.
func NewHTTPReader(baseURL string) *HTTPReader {
	return &HTTPReader{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Read implements Reader.
func (h *HTTPReader) Read(ctx context.Context, path string) (string, error) {
	url := strings.TrimSuffix(h.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

// CachedReader keeps file contents in memory for a limited time so repeated
// collections do not hit the underlying reader.
type CachedReader struct {
	next  Reader
	cache *cache.Cache
}

// NewCachedReader wraps next with a cache whose entries expire after ttl.
func NewCachedReader(next Reader, ttl time.Duration) *CachedReader {
	return &CachedReader{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Read implements Reader.
func (c *CachedReader) Read(ctx context.Context, path string) (string, error) {
	if v, ok := c.cache.Get(path); ok {
		return v.(string), nil
	}
	content, err := c.next.Read(ctx, path)
	if err != nil {
		return "", err
	}
	c.cache.Set(path, content, cache.DefaultExpiration)
	return content, nil
}

// Len returns the number of cached files.
func (c *CachedReader) Len() int {
	return c.cache.ItemCount()
}
