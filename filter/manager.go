package filter

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s0up4200/cinedex/tmdb"
)

// Preset is a named, reusable filter expression
type Preset struct {
	Name        string
	Expression  string
	Description string
}

// BuiltinPresets are always available and can be overridden by configuration
var BuiltinPresets = []Preset{
	{Name: "top-rated", Expression: `Rating >= 8`, Description: "Rated 8.0 or higher"},
	{Name: "recent", Expression: `releasedWithin(365)`, Description: "Released in the last year"},
	{Name: "classics", Expression: `HasReleaseDate and Year < 1980`, Description: "Released before 1980"},
	{Name: "hidden-gems", Expression: `Rating >= 7.5 and Votes < 1000`, Description: "Well rated but little known"},
	{Name: "no-poster", Expression: `not HasPoster`, Description: "Missing poster art"},
}

// Manager holds named presets and applies them to movie lists
type Manager struct {
	compiler  Compiler
	evaluator Evaluator
	presets   map[string]Preset
	filters   map[string]CompiledFilter
	mu        sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets a custom evaluator
func WithEvaluator(evaluator Evaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates a manager with the builtin presets registered
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler:  NewExprCompiler(WithCache(100)),
		evaluator: NewConcurrentEvaluator(),
		presets:   make(map[string]Preset),
		filters:   make(map[string]CompiledFilter),
	}

	for _, opt := range opts {
		opt(m)
	}

	for _, p := range BuiltinPresets {
		// builtin expressions are known to compile
		_ = m.Register(p)
	}

	return m
}

// Register compiles and stores a preset, replacing any with the same name
func (m *Manager) Register(preset Preset) error {
	filter, err := m.compiler.Compile(preset.Expression)
	if err != nil {
		return fmt.Errorf("failed to compile preset '%s': %w", preset.Name, err)
	}

	m.mu.Lock()
	m.presets[preset.Name] = preset
	m.filters[preset.Name] = filter
	m.mu.Unlock()

	return nil
}

// RegisterAll registers presets atomically: nothing is stored if any fails
func (m *Manager) RegisterAll(presets []Preset) error {
	compiled := make(map[string]CompiledFilter, len(presets))
	for _, p := range presets {
		filter, err := m.compiler.Compile(p.Expression)
		if err != nil {
			return fmt.Errorf("failed to compile preset '%s': %w", p.Name, err)
		}
		compiled[p.Name] = filter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range presets {
		m.presets[p.Name] = p
	}
	maps.Copy(m.filters, compiled)

	return nil
}

// Presets returns the registered presets sorted by name
func (m *Manager) Presets() []Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Collect(maps.Values(m.presets))
	slices.SortFunc(out, func(a, b Preset) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// ApplyPreset filters movies with a registered preset
func (m *Manager) ApplyPreset(ctx context.Context, name string, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	m.mu.RLock()
	filter, exists := m.filters[name]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}

	return m.evaluator.Evaluate(ctx, filter, movies)
}

// Apply compiles an ad hoc expression and filters movies with it
func (m *Manager) Apply(ctx context.Context, expression string, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return nil, err
	}
	return m.evaluator.Evaluate(ctx, filter, movies)
}
