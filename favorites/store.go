package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/s0up4200/cinedex/tmdb"
)

// Slot is the storage key holding the favorites list
const Slot = "FavoriteMovies"

// ErrStorage wraps failures of the underlying backend
var ErrStorage = errors.New("favorites storage failed")

// Store is the persisted favorites set. Every mutation reads the whole set,
// applies the change and writes the whole set back while holding mu.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewStore creates a Store over backend
func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend:  backend,
		validate: validator.New(),
		logger:   logger,
	}
}

// load reads the persisted list. Missing or undecodable data is an empty set;
// only backend I/O errors are returned.
func (s *Store) load() ([]tmdb.Movie, error) {
	data, err := s.backend.Load(Slot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var movies []tmdb.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		s.logger.Warn().Err(err).Msg("Favorites data is unreadable, treating as empty")
		return nil, nil
	}

	return dedupe(movies), nil
}

func (s *Store) save(movies []tmdb.Movie) error {
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	data, err := json.Marshal(movies)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.backend.Save(Slot, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// update runs fn as one read-modify-write transaction. The set is written
// back only when fn reports a change.
func (s *Store) update(fn func([]tmdb.Movie) ([]tmdb.Movie, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	movies, err := s.load()
	if err != nil {
		return err
	}

	next, changed := fn(movies)
	if !changed {
		return nil
	}

	return s.save(next)
}

// snapshot returns the current set, empty when storage cannot be read
func (s *Store) snapshot() []tmdb.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()

	movies, err := s.load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read favorites")
		return nil
	}
	return movies
}

// List returns the favorites in insertion order
func (s *Store) List() []tmdb.Movie {
	movies := s.snapshot()
	if movies == nil {
		return []tmdb.Movie{}
	}
	return movies
}

// Get returns the stored record for id
func (s *Store) Get(id int) (tmdb.Movie, bool) {
	movies := s.snapshot()
	if i := indexOf(movies, id); i >= 0 {
		return movies[i], true
	}
	return tmdb.Movie{}, false
}

// IsFavorite reports whether id is in the set
func (s *Store) IsFavorite(id int) bool {
	return indexOf(s.snapshot(), id) >= 0
}

// Add appends movie unless its ID is already present
func (s *Store) Add(movie tmdb.Movie) error {
	return s.update(func(movies []tmdb.Movie) ([]tmdb.Movie, bool) {
		if indexOf(movies, movie.ID) >= 0 {
			s.logger.Debug().Int("id", movie.ID).Str("title", movie.Title).Msg("Movie already in favorites")
			return movies, false
		}
		s.logger.Info().Int("id", movie.ID).Str("title", movie.Title).Msg("Added to favorites")
		return append(movies, movie), true
	})
}

// Remove deletes id from the set if present
func (s *Store) Remove(id int) error {
	return s.update(func(movies []tmdb.Movie) ([]tmdb.Movie, bool) {
		i := indexOf(movies, id)
		if i < 0 {
			return movies, false
		}
		s.logger.Info().Int("id", id).Str("title", movies[i].Title).Msg("Removed from favorites")
		return append(movies[:i], movies[i+1:]...), true
	})
}

// Toggle adds movie when absent and removes it when present.
// It returns whether the movie is a favorite afterwards.
func (s *Store) Toggle(movie tmdb.Movie) (bool, error) {
	var favorite bool
	err := s.update(func(movies []tmdb.Movie) ([]tmdb.Movie, bool) {
		if i := indexOf(movies, movie.ID); i >= 0 {
			favorite = false
			return append(movies[:i], movies[i+1:]...), true
		}
		favorite = true
		return append(movies, movie), true
	})
	if err != nil {
		return false, err
	}
	return favorite, nil
}

// ImportResult summarizes an Import call
type ImportResult struct {
	Added   int
	Skipped int
	Invalid []InvalidRecord
}

// InvalidRecord describes an imported record that failed validation
type InvalidRecord struct {
	Index int
	ID    int
	Err   error
}

// Error implements the error interface
func (r InvalidRecord) Error() string {
	return fmt.Sprintf("record %d (id %d): %v", r.Index, r.ID, r.Err)
}

// Import merges movies into the set in one transaction. Invalid records and
// IDs already present are skipped.
func (s *Store) Import(movies []tmdb.Movie) (ImportResult, error) {
	var result ImportResult

	err := s.update(func(current []tmdb.Movie) ([]tmdb.Movie, bool) {
		for i, movie := range movies {
			if err := s.validate.Struct(movie); err != nil {
				result.Invalid = append(result.Invalid, InvalidRecord{Index: i, ID: movie.ID, Err: err})
				continue
			}
			if indexOf(current, movie.ID) >= 0 {
				result.Skipped++
				continue
			}
			current = append(current, movie)
			result.Added++
		}
		return current, result.Added > 0
	})

	return result, err
}

// ImportJSON decodes a JSON array of movies from r and imports it
func (s *Store) ImportJSON(r io.Reader) (ImportResult, error) {
	var movies []tmdb.Movie
	if err := json.NewDecoder(r).Decode(&movies); err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse favorites file: %w", err)
	}
	return s.Import(movies)
}

// ExportJSON writes the favorites to w as an indented JSON array
func (s *Store) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.List())
}

func indexOf(movies []tmdb.Movie, id int) int {
	for i, m := range movies {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// dedupe keeps the first record for every ID
func dedupe(movies []tmdb.Movie) []tmdb.Movie {
	seen := make(map[int]struct{}, len(movies))
	out := movies[:0]
	for _, m := range movies {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
