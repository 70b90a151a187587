package preview

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// maxAssetSize bounds one cached script or stylesheet
const maxAssetSize = 8 << 20

// EngineAssets lists the reveal.js files the preview page needs, relative to the CDN base
var EngineAssets = []string{
	"dist/reset.css",
	"dist/reveal.css",
	"dist/reveal.js",
	"plugin/notes/notes.js",
}

// AssetURLs resolves EngineAssets against base
func AssetURLs(base string) []string {
	base = strings.TrimSuffix(base, "/")
	urls := make([]string, 0, len(EngineAssets))
	for _, a := range EngineAssets {
		urls = append(urls, base+"/"+a)
	}
	return urls
}

// Asset is one cached engine file
type Asset struct {
	URL         string
	ContentType string
	Body        []byte
}

// HTTPAssetLoader downloads engine assets once and serves them from memory,
// so the preview keeps working when the CDN becomes unreachable.
type HTTPAssetLoader struct {
	client ports.HTTPClient

	mu    sync.RWMutex
	cache map[string]Asset
}

// NewHTTPAssetLoader creates a loader over client
func NewHTTPAssetLoader(client ports.HTTPClient) *HTTPAssetLoader {
	return &HTTPAssetLoader{
		client: client,
		cache:  make(map[string]Asset),
	}
}

// Load fetches url unless it is already cached
func (l *HTTPAssetLoader) Load(ctx context.Context, url string) error {
	l.mu.RLock()
	_, ok := l.cache[url]
	l.mu.RUnlock()
	if ok {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating asset request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return fmt.Errorf("reading %s: %w", url, err)
	}

	contentType := mime.TypeByExtension(path.Ext(url))
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}

	l.mu.Lock()
	l.cache[url] = Asset{URL: url, ContentType: contentType, Body: body}
	l.mu.Unlock()
	return nil
}

// Lookup returns the cached asset whose URL ends with name
func (l *HTTPAssetLoader) Lookup(name string) (Asset, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return Asset{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for url, a := range l.cache {
		if strings.HasSuffix(url, "/"+name) {
			return a, true
		}
	}
	return Asset{}, false
}

// Len returns the number of cached assets
func (l *HTTPAssetLoader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

var _ ports.AssetLoader = (*HTTPAssetLoader)(nil)
