package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cinedex/config"
	"github.com/s0up4200/cinedex/tmdb"
)

func withCatalog(t *testing.T, status int) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"status_message":"Invalid API key"}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.NewClient(server.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)

	catalog, cfg, logger = client, &config.Config{}, zerolog.Nop()
	t.Cleanup(func() { catalog, cfg = nil, nil })
}

func TestCheck(t *testing.T) {
	withCatalog(t, http.StatusOK)

	out, err := run(t, runCheck)
	require.NoError(t, err)
	assert.Contains(t, out, "╰── ✓ TMDB")
}

func TestCheckRejectedKey(t *testing.T) {
	withCatalog(t, http.StatusUnauthorized)

	out, err := run(t, runCheck)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TMDB")
	assert.Contains(t, out, "✗ TMDB: The movie database rejected the API key")
}

// closeSpy records whether it was closed
type closeSpy struct{ closed bool }

func (c *closeSpy) Close() error {
	c.closed = true
	return nil
}

func TestInitializeAppClosesResourcesOnFailure(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	// a regular file where the favorites directory should be
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	t.Setenv("CINEDEX_TMDB_API_KEY", "test-key")
	t.Setenv("CINEDEX_FAVORITES_PATH", filepath.Join(blocker, "favorites.db"))

	spy := &closeSpy{}
	closers = []io.Closer{spy}
	t.Cleanup(func() {
		closers, cfg, catalog = nil, nil, nil
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	})

	c := &cobra.Command{Annotations: map[string]string{annotationInteractive: "true"}}
	err := initializeApp(c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open favorites")

	assert.True(t, spy.closed)
	assert.Empty(t, closers)
	assert.FileExists(t, filepath.Join(dir, ".cinedex", "cinedex.log"))
}
