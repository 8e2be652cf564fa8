package imagecache

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type imageServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newImageServer(t *testing.T, delay time.Duration) *imageServer {
	t.Helper()
	small := encodePNG(t, 10, 10)
	large := encodePNG(t, 100, 100)

	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		switch r.URL.Path {
		case "/small.png", "/a.png", "/b.png", "/c.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(small)
		case "/large.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(large)
		case "/garbage.jpg":
			w.Write([]byte("definitely not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func TestLoad(t *testing.T) {
	server := newImageServer(t, 0)
	cache := New(DefaultMaxBytes, zerolog.Nop())

	img, ok := cache.Load(context.Background(), server.URL+"/small.png")
	require.True(t, ok)
	assert.Equal(t, 10, img.Bounds().Dx())

	_, ok = cache.Load(context.Background(), server.URL+"/small.png")
	require.True(t, ok)
	assert.Equal(t, int32(1), server.hits.Load(), "second load should be served from memory")
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, int64(10*10*4), cache.Bytes())
}

func TestLoadUnavailable(t *testing.T) {
	server := newImageServer(t, 0)
	cache := New(DefaultMaxBytes, zerolog.Nop())

	tests := []struct {
		name string
		url  string
	}{
		{name: "empty url", url: ""},
		{name: "not found", url: server.URL + "/missing.jpg"},
		{name: "undecodable", url: server.URL + "/garbage.jpg"},
		{name: "malformed url", url: "://bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, ok := cache.Load(context.Background(), tt.url)
			assert.False(t, ok)
			assert.Nil(t, img)
		})
	}
	assert.Equal(t, 0, cache.Len())
}

func TestConcurrentLoadsShareOneDownload(t *testing.T) {
	server := newImageServer(t, 50*time.Millisecond)
	cache := New(DefaultMaxBytes, zerolog.Nop())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := cache.Load(context.Background(), server.URL+"/small.png")
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), server.hits.Load())
}

func TestEvictionRespectsByteBudget(t *testing.T) {
	server := newImageServer(t, 0)
	// room for two 10x10 images
	cache := New(2*10*10*4, zerolog.Nop())
	ctx := context.Background()

	for _, name := range []string{"/a.png", "/b.png"} {
		_, ok := cache.Load(ctx, server.URL+name)
		require.True(t, ok)
	}
	// touch a so b becomes least recently used
	_, ok := cache.Load(ctx, server.URL+"/a.png")
	require.True(t, ok)

	_, ok = cache.Load(ctx, server.URL+"/c.png")
	require.True(t, ok)
	assert.Equal(t, 2, cache.Len())
	assert.LessOrEqual(t, cache.Bytes(), int64(2*10*10*4))

	hits := server.hits.Load()
	_, ok = cache.Load(ctx, server.URL+"/a.png")
	require.True(t, ok)
	assert.Equal(t, hits, server.hits.Load(), "a should still be cached")

	_, ok = cache.Load(ctx, server.URL+"/b.png")
	require.True(t, ok)
	assert.Equal(t, hits+1, server.hits.Load(), "b should have been evicted")
}

func TestOversizedImageIsUnavailable(t *testing.T) {
	server := newImageServer(t, 0)
	cache := New(1000, zerolog.Nop())

	img, ok := cache.Load(context.Background(), server.URL+"/large.png")
	assert.False(t, ok)
	assert.Nil(t, img)
	assert.Equal(t, 0, cache.Len())
}

// withDimensions rewrites the IHDR size of a PNG without touching its pixel data
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	// 8 byte signature, 4 byte length, then "IHDR"
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestHugeDeclaredDimensionsRejectedBeforeDecode(t *testing.T) {
	bomb := withDimensions(t, encodePNG(t, 1, 1), 100000, 100000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(bomb)
	}))
	t.Cleanup(server.Close)

	cache := New(DefaultMaxBytes, zerolog.Nop())
	img, ok := cache.Load(context.Background(), server.URL+"/bomb.png")
	assert.False(t, ok)
	assert.Nil(t, img)
	assert.Equal(t, 0, cache.Len())
}

func TestLoadAsync(t *testing.T) {
	server := newImageServer(t, 0)
	cache := New(DefaultMaxBytes, zerolog.Nop())

	select {
	case res := <-cache.LoadAsync(context.Background(), server.URL+"/small.png"):
		assert.True(t, res.OK)
		assert.Equal(t, server.URL+"/small.png", res.URL)
	case <-time.After(5 * time.Second):
		t.Fatal("LoadAsync did not deliver")
	}

	res := <-cache.LoadAsync(context.Background(), server.URL+"/missing.jpg")
	assert.False(t, res.OK)
}

func TestLoadCancelledCaller(t *testing.T) {
	server := newImageServer(t, 200*time.Millisecond)
	cache := New(DefaultMaxBytes, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := cache.Load(ctx, server.URL+"/small.png")
	assert.False(t, ok)

	// the shared download still completes for later callers
	_, ok = cache.Load(context.Background(), server.URL+"/small.png")
	assert.True(t, ok)
}

func TestPrefetch(t *testing.T) {
	server := newImageServer(t, 0)
	cache := New(DefaultMaxBytes, zerolog.Nop())

	n := cache.Prefetch(context.Background(), []string{
		server.URL + "/a.png",
		server.URL + "/b.png",
		"",
		server.URL + "/missing.jpg",
	}, 2)

	assert.Equal(t, 2, n)
	assert.Equal(t, 2, cache.Len())

}
