// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"slices"

	"github.com/jonboulle/clockwork"
)

// DataStructure is the redis data structure backing the indexed documents.
type DataStructure string

const (
	DataStructureJSON DataStructure = "JSON"
	DataStructureHash DataStructure = "HASH"
)

// StopWordsMode configures the stop words used by the full text index.
type StopWordsMode string

const (
	StopWordsOff     StopWordsMode = "OFF"
	StopWordsDefault StopWordsMode = "DEFAULT"
	StopWordsCustom  StopWordsMode = "CUSTOM"
)

// IDStrategy generates entity ids. It must be safe for concurrent use.
type IDStrategy func() string

// Options is the fully resolved schema configuration. Every value is set,
// defaults included, once the schema has been built.
type Options struct {
	DataStructure  DataStructure
	Prefix         string
	IndexName      string
	IndexHashName  string
	IDStrategy     IDStrategy
	IndexedDefault bool
	UseStopWords   StopWordsMode
	StopWords      []string
}

// Option configures a schema at construction time.
type Option func(*settings)

// settings keeps track of which options were explicitly provided, so that
// invalid values are reported instead of silently replaced by defaults.
type settings struct {
	dataStructure  *DataStructure
	prefix         *string
	indexName      *string
	indexHashName  *string
	idStrategy     IDStrategy
	idStrategySet  bool
	indexedDefault *bool
	useStopWords   *StopWordsMode
	stopWords      []string
	clock          clockwork.Clock
}

const (
	indexNameSuffix     = ":index"
	indexHashNameSuffix = ":index:hash"
)

func WithDataStructure(ds DataStructure) Option {
	return func(s *settings) {
		s.dataStructure = &ds
	}
}

// WithPrefix sets the keyspace prefix. Defaults to the entity type name.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = &prefix
	}
}

// WithIndexName sets the search index name. Defaults to <prefix>:index.
func WithIndexName(name string) Option {
	return func(s *settings) {
		s.indexName = &name
	}
}

// WithIndexHashName sets the key where the index fingerprint is stored.
// Defaults to <prefix>:index:hash.
func WithIndexHashName(name string) Option {
	return func(s *settings) {
		s.indexHashName = &name
	}
}

// WithIDStrategy overrides the default ULID id generation.
func WithIDStrategy(strategy IDStrategy) Option {
	return func(s *settings) {
		s.idStrategy = strategy
		s.idStrategySet = true
	}
}

func WithIndexedDefault(indexed bool) Option {
	return func(s *settings) {
		s.indexedDefault = &indexed
	}
}

func WithUseStopWords(mode StopWordsMode) Option {
	return func(s *settings) {
		s.useStopWords = &mode
	}
}

// WithStopWords sets the stop words list. It is only used by the index when
// the stop words mode is CUSTOM.
func WithStopWords(words ...string) Option {
	return func(s *settings) {
		s.stopWords = slices.Clone(words)
	}
}

// WithClock sets the clock used by the default id generator. Times outside
// of the ULID range are clamped to it.
func WithClock(clock clockwork.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

func (s *settings) resolve(defaultPrefix string) (Options, error) {
	opts := Options{
		DataStructure:  DataStructureJSON,
		IndexedDefault: true,
		UseStopWords:   StopWordsDefault,
		StopWords:      []string{},
	}

	if s.dataStructure != nil {
		switch *s.dataStructure {
		case DataStructureJSON, DataStructureHash:
			opts.DataStructure = *s.dataStructure
		default:
			return Options{}, configErrorf("invalid data structure '%s': valid data structures are %s",
				*s.dataStructure, QuoteList([]DataStructure{DataStructureHash, DataStructureJSON}))
		}
	}

	if s.useStopWords != nil {
		switch *s.useStopWords {
		case StopWordsOff, StopWordsDefault, StopWordsCustom:
			opts.UseStopWords = *s.useStopWords
		default:
			return Options{}, configErrorf("invalid stop words mode '%s': valid values are %s",
				*s.useStopWords, QuoteList([]StopWordsMode{StopWordsOff, StopWordsDefault, StopWordsCustom}))
		}
	}

	if s.stopWords != nil {
		opts.StopWords = s.stopWords
	}

	if s.indexedDefault != nil {
		opts.IndexedDefault = *s.indexedDefault
	}

	switch {
	case s.prefix != nil && *s.prefix == "":
		return Options{}, configErrorf("prefix must be a non-empty string")
	case s.prefix != nil:
		opts.Prefix = *s.prefix
	case defaultPrefix == "":
		return Options{}, configErrorf("prefix cannot be derived from the entity type and must be provided")
	default:
		opts.Prefix = defaultPrefix
	}

	opts.IndexName = opts.Prefix + indexNameSuffix
	if s.indexName != nil {
		if *s.indexName == "" {
			return Options{}, configErrorf("index name must be a non-empty string")
		}
		opts.IndexName = *s.indexName
	}

	opts.IndexHashName = opts.Prefix + indexHashNameSuffix
	if s.indexHashName != nil {
		if *s.indexHashName == "" {
			return Options{}, configErrorf("index hash name must be a non-empty string")
		}
		opts.IndexHashName = *s.indexHashName
	}

	switch {
	case s.idStrategySet && s.idStrategy == nil:
		return Options{}, configErrorf("id strategy must be a non-nil function that takes no arguments and returns a string")
	case s.idStrategySet:
		opts.IDStrategy = s.idStrategy
	default:
		clock := s.clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}
		opts.IDStrategy = NewULIDStrategy(clock)
	}

	return opts, nil
}
