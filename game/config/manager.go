package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/service"
)

var (
	ErrRuleSetNotFound = errors.New("rule set not found")
	ErrInvalidRuleSet  = errors.New("invalid rule set")
)

// DefaultRuleSetName is used when no default is configured.
const DefaultRuleSetName = "hebrew"

var (
	ruleSetExtensions  = []string{".yaml", ".yml", ".json"}
	ruleSetNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Manager handles rule set loading and caching. Files in the rules
// directory take precedence over the built-in rule sets of the same name.
type Manager struct {
	rulesDir     string
	defaultName  string
	defaultRules *engine.RuleSet
	rules        map[string]*engine.RuleSet
	mu           sync.RWMutex
}

// NewManager creates a new rule set manager. An empty rulesDir serves only
// the built-in rule sets.
func NewManager(rulesDir, defaultName string) (*Manager, error) {
	if rulesDir != "" {
		if _, err := os.Stat(rulesDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("rules directory does not exist: %s", rulesDir)
		}
	}
	if defaultName == "" {
		defaultName = DefaultRuleSetName
	}

	m := &Manager{
		rulesDir:    rulesDir,
		defaultName: defaultName,
		rules:       make(map[string]*engine.RuleSet),
	}
	if err := m.SetDefault(defaultName); err != nil {
		return nil, fmt.Errorf("failed to load default rule set: %w", err)
	}
	return m, nil
}

// LoadRuleSet loads a rule set by name
func (m *Manager) LoadRuleSet(name string) (*engine.RuleSet, error) {
	m.mu.RLock()
	// Check cache first
	if rules, exists := m.rules[name]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	if !ruleSetNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrRuleSetNotFound, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.rules[name]; exists {
		return rules, nil
	}

	rules, err := m.loadFile(name)
	if errors.Is(err, ErrRuleSetNotFound) {
		builtin, ok := engine.DefaultRuleSets()[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRuleSetNotFound, name)
		}
		rules, err = builtin, nil
	}
	if err != nil {
		return nil, err
	}

	m.rules[name] = rules
	return rules, nil
}

// loadFile reads name from the rules directory. Must hold m.mu.
func (m *Manager) loadFile(name string) (*engine.RuleSet, error) {
	if m.rulesDir == "" {
		return nil, ErrRuleSetNotFound
	}
	for _, ext := range ruleSetExtensions {
		path := filepath.Join(m.rulesDir, name+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rule set file: %w", err)
		}
		rules, err := ParseRuleSet(data, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Debug().Str("rule_set", name).Str("path", path).Msg("rule set loaded")
		return rules, nil
	}
	return nil, ErrRuleSetNotFound
}

// ParseRuleSet decodes a YAML or JSON rule set, fills omitted fields and
// validates the result. name is used when the document has no name.
func ParseRuleSet(data []byte, name string) (*engine.RuleSet, error) {
	var rules engine.RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}

	ApplyDefaults(&rules, name)
	if err := engine.ValidateRuleSet(&rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}
	return &rules, nil
}

// ApplyDefaults fills the fields a rule set file may leave out. A center of
// (0,0) is read as unset.
func ApplyDefaults(r *engine.RuleSet, name string) {
	if r.Name == "" {
		r.Name = name
	}
	if r.BoardSize == 0 {
		r.BoardSize = engine.DefaultBoardSize
	}
	if r.RackSize == 0 {
		r.RackSize = engine.DefaultRackSize
	}
	if r.MaxConsecutivePasses == 0 {
		r.MaxConsecutivePasses = engine.DefaultMaxConsecutivePasses
	}
	if r.Center == (engine.Position{}) {
		r.Center = engine.Position{Row: r.BoardSize / 2, Col: r.BoardSize / 2}
	}
	if r.Multipliers == nil && r.BoardSize == engine.DefaultBoardSize {
		r.Multipliers = engine.StandardMultipliers()
	}
	if len(r.Tiles) == 0 {
		switch r.Language {
		case "he":
			r.Tiles = engine.HebrewTiles()
		case "en":
			r.Tiles = engine.EnglishTiles()
		}
	}
}

// ListRuleSets returns information about all available rule sets
func (m *Manager) ListRuleSets() ([]*service.RuleSetInfo, error) {
	names := make(map[string]bool)
	for name := range engine.DefaultRuleSets() {
		names[name] = true
	}

	if m.rulesDir != "" {
		entries, err := os.ReadDir(m.rulesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules directory: %w", err)
		}
		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if entry.IsDir() || !isRuleSetExtension(ext) {
				continue
			}
			names[strings.TrimSuffix(entry.Name(), ext)] = false
		}
	}

	var infos []*service.RuleSetInfo
	for name, builtin := range names {
		rules, err := m.LoadRuleSet(name)
		if err != nil {
			// Skip invalid rule sets
			log.Warn().Err(err).Str("rule_set", name).Msg("skipping rule set")
			continue
		}
		infos = append(infos, &service.RuleSetInfo{
			ID:          name,
			Name:        rules.Name,
			Description: rules.Description,
			Language:    rules.Language,
			BoardSize:   rules.BoardSize,
			RackSize:    rules.RackSize,
			TileCount:   rules.TileTotal(),
			Builtin:     builtin,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func isRuleSetExtension(ext string) bool {
	for _, e := range ruleSetExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// GetDefault returns the default rule set
func (m *Manager) GetDefault() *engine.RuleSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultRules
}

// SetDefault sets the default rule set by name
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadRuleSet(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = name
	m.defaultRules = rules
	return nil
}

// RefreshCache drops every cached rule set and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.rules = make(map[string]*engine.RuleSet)
	name := m.defaultName
	m.mu.Unlock()

	return m.SetDefault(name)
}

// SaveRuleSet writes a rule set to the rules directory as YAML
func (m *Manager) SaveRuleSet(name string, rules *engine.RuleSet) error {
	if m.rulesDir == "" {
		return fmt.Errorf("no rules directory configured")
	}
	if !ruleSetNamePattern.MatchString(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidRuleSet, name)
	}
	if err := engine.ValidateRuleSet(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}

	data, err := yaml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal rule set: %w", err)
	}

	path := filepath.Join(m.rulesDir, name+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rule set file: %w", err)
	}

	m.mu.Lock()
	m.rules[name] = rules
	m.mu.Unlock()

	return nil
}
