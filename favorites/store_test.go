package favorites

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cinedex/tmdb"
)

func movie(id int) tmdb.Movie {
	return tmdb.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id), ReleaseDate: "2024-01-01", VoteAverage: 7}
}

func ids(movies []tmdb.Movie) []int {
	out := make([]int, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func newMemoryStore() (*Store, *MemoryBackend) {
	backend := NewMemoryBackend()
	return NewStore(backend, zerolog.Nop()), backend
}

func TestAddToggleScenario(t *testing.T) {
	store, _ := newMemoryStore()

	require.NoError(t, store.Add(movie(42)))
	assert.Equal(t, []int{42}, ids(store.List()))
	assert.True(t, store.IsFavorite(42))

	favorite, err := store.Toggle(movie(42))
	require.NoError(t, err)
	assert.False(t, favorite)
	assert.Empty(t, store.List())
	assert.False(t, store.IsFavorite(42))
}

func TestToggleIsSelfInverse(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		toggled  int
	}{
		{name: "absent movie", existing: []int{1, 2}, toggled: 3},
		{name: "present movie", existing: []int{1, 2, 3}, toggled: 2},
		{name: "empty set", toggled: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newMemoryStore()
			for _, id := range tt.existing {
				require.NoError(t, store.Add(movie(id)))
			}
			before := store.IsFavorite(tt.toggled)

			_, err := store.Toggle(movie(tt.toggled))
			require.NoError(t, err)
			_, err = store.Toggle(movie(tt.toggled))
			require.NoError(t, err)

			assert.Equal(t, before, store.IsFavorite(tt.toggled))
		})
	}
}

func TestAddIsIdempotent(t *testing.T) {
	store, _ := newMemoryStore()

	require.NoError(t, store.Add(movie(1)))
	require.NoError(t, store.Add(movie(2)))
	before := store.List()

	dup := movie(1)
	dup.Title = "Different title, same id"
	require.NoError(t, store.Add(dup))

	assert.Equal(t, before, store.List())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	store, _ := newMemoryStore()
	require.NoError(t, store.Add(movie(1)))
	before := store.List()

	require.NoError(t, store.Remove(99))
	assert.Equal(t, before, store.List())
}

func TestListKeepsInsertionOrder(t *testing.T) {
	store, _ := newMemoryStore()
	for _, id := range []int{5, 3, 8, 1} {
		require.NoError(t, store.Add(movie(id)))
	}
	require.NoError(t, store.Remove(8))
	require.NoError(t, store.Add(movie(8)))

	assert.Equal(t, []int{5, 3, 1, 8}, ids(store.List()))
}

func TestCorruptOrMissingDataIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "missing", data: nil},
		{name: "garbage", data: []byte("not json")},
		{name: "wrong shape", data: []byte(`{"id": 1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend := newMemoryStore()
			if tt.data != nil {
				require.NoError(t, backend.Save(Slot, tt.data))
			}

			assert.Empty(t, store.List())
			assert.False(t, store.IsFavorite(1))

			require.NoError(t, store.Add(movie(1)))
			assert.Equal(t, []int{1}, ids(store.List()))
		})
	}
}

func TestDuplicatePersistedIDsAreCollapsed(t *testing.T) {
	store, backend := newMemoryStore()
	require.NoError(t, backend.Save(Slot, []byte(`[{"id":1,"title":"A"},{"id":1,"title":"B"},{"id":2,"title":"C"}]`)))

	list := store.List()
	assert.Equal(t, []int{1, 2}, ids(list))
	assert.Equal(t, "A", list[0].Title)
}

func TestPersistedFormatIsSnakeCaseArray(t *testing.T) {
	store, backend := newMemoryStore()
	poster := "/p.jpg"
	m := movie(7)
	m.PosterPath = &poster
	require.NoError(t, store.Add(m))

	data, err := backend.Load(Slot)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "["))
	assert.Contains(t, string(data), `"poster_path":"/p.jpg"`)
	assert.Contains(t, string(data), `"release_date":"2024-01-01"`)
	assert.Contains(t, string(data), `"vote_average":7`)
}

func TestConcurrentMutationsDoNotLoseUpdates(t *testing.T) {
	store, _ := newMemoryStore()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, store.Add(movie(id)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.List(), 50)
}

// failingBackend fails every operation
type failingBackend struct{}

func (failingBackend) Load(string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingBackend) Save(string, []byte) error   { return errors.New("disk on fire") }

func TestStorageFailures(t *testing.T) {
	store := NewStore(failingBackend{}, zerolog.Nop())

	assert.Empty(t, store.List())
	assert.False(t, store.IsFavorite(1))

	err := store.Add(movie(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = store.Toggle(movie(1))
	assert.ErrorIs(t, err, ErrStorage)
}

func TestImport(t *testing.T) {
	store, _ := newMemoryStore()
	require.NoError(t, store.Add(movie(1)))

	result, err := store.Import([]tmdb.Movie{
		movie(1),
		movie(2),
		{ID: 0, Title: "no id"},
		{ID: 3, Title: ""},
		{ID: 4, Title: "bad rating", VoteAverage: 11},
		movie(5),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Invalid, 3)
	assert.Equal(t, []int{1, 2, 5}, ids(store.List()))
}

func TestExportImportJSON(t *testing.T) {
	source, _ := newMemoryStore()
	for _, id := range []int{3, 1, 2} {
		require.NoError(t, source.Add(movie(id)))
	}

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(&buf))

	target, _ := newMemoryStore()
	result, err := target.ImportJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, []int{3, 1, 2}, ids(target.List()))

	_, err = target.ImportJSON(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestBoltBackendPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "favorites.db")

	backend, err := OpenBolt(path)
	require.NoError(t, err)

	store := NewStore(backend, zerolog.Nop())
	require.NoError(t, store.Add(movie(10)))
	require.NoError(t, store.Add(movie(20)))
	require.NoError(t, backend.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	store = NewStore(reopened, zerolog.Nop())
	assert.Equal(t, []int{10, 20}, ids(store.List()))

	empty, err := reopened.Load("missing-slot")
	require.NoError(t, err)
	assert.Nil(t, empty)
}
