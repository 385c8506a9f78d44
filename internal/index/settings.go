package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const (
	// DefaultSpaceCacheSize is how many committed generations keep a remembered disk footprint.
	DefaultSpaceCacheSize = 4

	// DefaultAnalyzer is the analyzer applied to text fields of newly created indices.
	DefaultAnalyzer = standard.Name
)

// Settings is the engine configuration applied whenever a handle is attached.
type Settings struct {
	// SpaceCacheSize bounds the size cache used by GetSpace.
	SpaceCacheSize int

	// DefaultAnalyzer is the analyzer name used by NewMapping.
	DefaultAnalyzer string
}

// DefaultSettings returns the fixed configuration used by shard attachment.
func DefaultSettings() Settings {
	return Settings{
		SpaceCacheSize:  DefaultSpaceCacheSize,
		DefaultAnalyzer: DefaultAnalyzer,
	}
}

// withDefaults fills zero values from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.SpaceCacheSize <= 0 {
		s.SpaceCacheSize = d.SpaceCacheSize
	}
	if s.DefaultAnalyzer == "" {
		s.DefaultAnalyzer = d.DefaultAnalyzer
	}
	return s
}

// NewMapping builds the index mapping used when creating a new physical index.
// Documents are dynamic JSON objects; every text field goes through the default analyzer.
func NewMapping(s Settings) *mapping.IndexMappingImpl {
	s = s.withDefaults()

	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = s.DefaultAnalyzer
	return m
}

// Option configures optional Handle properties.
type Option func(*Handle)

// WithDir records the on-disk directory of the engine so GetSpace can measure it.
// Handles without a directory (memory-only engines) report a footprint of zero.
func WithDir(dir string) Option {
	return func(h *Handle) {
		h.dir = dir
	}
}

// WithSettings replaces the settings passed to New, e.g. with node configuration.
func WithSettings(s Settings) Option {
	return func(h *Handle) {
		h.settings = s
	}
}
