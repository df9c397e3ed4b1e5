// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xataio/ftsearch/pkg/client"
	loglib "github.com/xataio/ftsearch/pkg/log"
	"github.com/xataio/ftsearch/pkg/schema"
)

// IndexSchema is the compiled schema state needed to deploy a search index.
// It is implemented by schema.Schema for any entity type.
type IndexSchema interface {
	IndexName() string
	IndexHashName() string
	IndexHash() string
	Prefix() string
	DataStructure() schema.DataStructure
	UseStopWords() schema.StopWordsMode
	StopWords() []string
	RedisSchema() []string
}

// Deployer keeps search indexes in line with their schema. The index hash
// stored next to the index is compared with the schema hash, and the index
// is only recreated when they differ.
type Deployer struct {
	executor client.Executor
	logger   loglib.Logger
}

type Option func(*Deployer)

var ErrEmptySchema = errors.New("index schema has no fields")

func New(executor client.Executor, opts ...Option) *Deployer {
	d := &Deployer{
		executor: executor,
		logger:   loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func WithLogger(l loglib.Logger) Option {
	return func(d *Deployer) {
		d.logger = loglib.NewModuleLogger(l, "index_deployer")
	}
}

// Deploy creates the index, or recreates it when the stored hash does not
// match the schema hash. It returns true if the index was (re)created.
func (d *Deployer) Deploy(ctx context.Context, s IndexSchema) (bool, error) {
	if len(s.RedisSchema()) == 0 {
		return false, ErrEmptySchema
	}

	logFields := loglib.Fields{loglib.IndexField: s.IndexName(), "hash": s.IndexHash()}

	current, err := d.storedHash(ctx, s)
	if err != nil {
		return false, err
	}
	if current == s.IndexHash() {
		d.logger.Info("index is up to date", logFields)
		return false, nil
	}

	d.logger.Info("index schema changed, recreating index", loglib.MergeFields(logFields, loglib.Fields{
		"stored_hash": current,
	}))

	if err := d.dropIndex(ctx, s.IndexName()); err != nil {
		return false, err
	}

	if _, err := d.executor.Execute(ctx, CreateArgs(s)); err != nil {
		return false, fmt.Errorf("creating index %s: %w", s.IndexName(), err)
	}

	if _, err := d.executor.Execute(ctx, []string{"SET", s.IndexHashName(), s.IndexHash()}); err != nil {
		return false, fmt.Errorf("storing index hash at %s: %w", s.IndexHashName(), err)
	}

	return true, nil
}

// Drop removes the index and its stored hash. Documents are kept. Dropping
// an index that does not exist is not an error.
func (d *Deployer) Drop(ctx context.Context, s IndexSchema) error {
	if err := d.dropIndex(ctx, s.IndexName()); err != nil {
		return err
	}
	if _, err := d.executor.Execute(ctx, []string{"DEL", s.IndexHashName()}); err != nil {
		return fmt.Errorf("deleting index hash %s: %w", s.IndexHashName(), err)
	}
	d.logger.Info("index dropped", loglib.Fields{loglib.IndexField: s.IndexName()})
	return nil
}

// CreateArgs returns the FT.CREATE command for the schema.
func CreateArgs(s IndexSchema) []string {
	redisSchema := s.RedisSchema()
	args := make([]string, 0, 8+len(redisSchema))
	args = append(args,
		"FT.CREATE", s.IndexName(),
		"ON", string(s.DataStructure()),
		"PREFIX", "1", s.Prefix()+":",
	)

	switch s.UseStopWords() {
	case schema.StopWordsOff:
		args = append(args, "STOPWORDS", "0")
	case schema.StopWordsCustom:
		words := s.StopWords()
		args = append(args, "STOPWORDS", strconv.Itoa(len(words)))
		args = append(args, words...)
	}

	args = append(args, "SCHEMA")
	return append(args, redisSchema...)
}

func (d *Deployer) storedHash(ctx context.Context, s IndexSchema) (string, error) {
	reply, err := d.executor.Execute(ctx, []string{"GET", s.IndexHashName()})
	if err != nil {
		return "", fmt.Errorf("retrieving index hash %s: %w", s.IndexHashName(), err)
	}
	switch v := reply.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unexpected index hash reply of type %T", reply)
	}
}

func (d *Deployer) dropIndex(ctx context.Context, name string) error {
	_, err := d.executor.Execute(ctx, []string{"FT.DROPINDEX", name})
	if err != nil && !isUnknownIndexError(err) {
		return fmt.Errorf("dropping index %s: %w", name, err)
	}
	return nil
}

func isUnknownIndexError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index name") || strings.Contains(msg, "no such index")
}
