// Package imagecache downloads and decodes poster images, keeping decoded
// images in a memory-bounded LRU keyed by absolute URL.
//
// A failed download or an undecodable payload is reported as "no image",
// never as an error; callers show a placeholder instead. Concurrent loads of
// the same URL share a single download.
package imagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // TMDB posters are JPEG
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxBytes bounds the decoded size of all cached images
	DefaultMaxBytes int64 = 64 << 20

	maxDownloadBytes = 20 << 20
)

var errTooLarge = errors.New("image exceeds cache budget")

// Cache loads images by URL
type Cache struct {
	httpClient *http.Client
	entries    *lruCache
	group      singleflight.Group
	logger     zerolog.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithHTTPClient replaces the client used for downloads
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a cache holding at most maxBytes of decoded pixels
func New(maxBytes int64, logger zerolog.Logger, opts ...Option) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	c := &Cache{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		entries:    newLRUCache(maxBytes),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the image at rawURL. ok is false when the image is unavailable.
func (c *Cache) Load(ctx context.Context, rawURL string) (image.Image, bool) {
	if rawURL == "" {
		return nil, false
	}

	if img, ok := c.entries.Get(rawURL); ok {
		return img, true
	}

	// The shared download must survive any single caller giving up.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(rawURL, func() (any, error) {
		img, err := c.download(fetchCtx, rawURL)
		if err != nil {
			return nil, err
		}
		c.entries.Put(rawURL, img, weightOf(img))
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, false
	case res := <-ch:
		if res.Err != nil {
			c.logger.Debug().Err(res.Err).Str("url", rawURL).Msg("Image unavailable")
			return nil, false
		}
		return res.Val.(image.Image), true
	}
}

// Result is the outcome of an asynchronous load
type Result struct {
	URL   string
	Image image.Image
	OK    bool
}

// LoadAsync starts a load and delivers its result exactly once on the returned channel
func (c *Cache) LoadAsync(ctx context.Context, rawURL string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		img, ok := c.Load(ctx, rawURL)
		out <- Result{URL: rawURL, Image: img, OK: ok}
		close(out)
	}()
	return out
}

// Prefetch warms the cache for urls with at most concurrency downloads at once.
// It returns how many images ended up available.
func (c *Cache) Prefetch(ctx context.Context, urls []string, concurrency int) int {
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	loaded := make(chan struct{}, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		g.Go(func() error {
			if _, ok := c.Load(ctx, u); ok {
				loaded <- struct{}{}
			}
			return nil
		})
	}
	g.Wait()
	close(loaded)

	return len(loaded)
}

// Len returns the number of cached images
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Bytes returns the decoded size of all cached images
func (c *Cache) Bytes() int64 {
	return c.entries.Weight()
}

func (c *Cache) download(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	// Reject from the header before allocating pixels.
	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if weight := int64(conf.Width) * int64(conf.Height) * 4; weight > c.entries.maxWeight {
		return nil, fmt.Errorf("%w: %dx%d", errTooLarge, conf.Width, conf.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.logger.Debug().
		Str("url", rawURL).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Downloaded image")

	return img, nil
}

// weightOf approximates the decoded size as four bytes per pixel
func weightOf(img image.Image) int64 {
	b := img.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}
