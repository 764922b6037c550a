package lexicon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/lastword/game/engine"
)

// ErrLexiconNotFound is returned when no lexicon exists for a language and
// the registry does not fall back to AcceptAll.
var ErrLexiconNotFound = errors.New("lexicon not found")

// AcceptAll accepts every word.
type AcceptAll struct{}

func (AcceptAll) Contains(string) bool { return true }

// Registry loads and caches one dictionary per language.
type Registry struct {
	dir       string
	acceptAll bool
	mu        sync.Mutex
	cache     map[string]engine.Dictionary
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithAcceptAllFallback makes languages without a lexicon accept every word.
func WithAcceptAllFallback() RegistryOption {
	return func(r *Registry) { r.acceptAll = true }
}

// WithDictionary registers a ready-made dictionary for language.
func WithDictionary(language string, dict engine.Dictionary) RegistryOption {
	return func(r *Registry) { r.cache[language] = dict }
}

// NewRegistry looks for lexicons under dir. For a language "he" it tries
// lexica/gaddag/he.kwg, then he.txt and he.dic.
func NewRegistry(dir string, opts ...RegistryOption) *Registry {
	r := &Registry{dir: dir, cache: make(map[string]engine.Dictionary)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the dictionary for language, loading it on first use.
func (r *Registry) Get(language string) (engine.Dictionary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.cache[language]; ok {
		return d, nil
	}
	d, err := r.load(language)
	if err != nil {
		return nil, err
	}
	r.cache[language] = d
	return d, nil
}

func (r *Registry) load(language string) (engine.Dictionary, error) {
	if r.dir != "" {
		if _, err := os.Stat(KWGPath(r.dir, language)); err == nil {
			var tr func(string) string
			if language == "he" {
				tr = HebrewToLatin
			}
			d, err := LoadKWG(r.dir, language, tr)
			if err != nil {
				return nil, fmt.Errorf("failed to load word graph for %s: %w", language, err)
			}
			log.Info().Str("language", language).Str("kind", "kwg").Msg("lexicon loaded")
			return d, nil
		}

		for _, ext := range []string{".txt", ".dic"} {
			path := filepath.Join(r.dir, language+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			wl, err := LoadWordList(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load word list for %s: %w", language, err)
			}
			log.Info().Str("language", language).Str("path", path).Int("words", wl.Len()).Msg("lexicon loaded")
			return wl, nil
		}
	}

	if r.acceptAll {
		log.Warn().Str("language", language).Msg("no lexicon found, accepting every word")
		return AcceptAll{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrLexiconNotFound, language)
}
