// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"slices"
	"time"
)

// Config enables metrics and traces export. Nil sections are disabled.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	// Defaults to ftsearch.
	ServiceName string
	// Indexes are the search indexes the process works with, reported as the
	// ftsearch.indexes resource attribute.
	Indexes []string
	Metrics *MetricsConfig
	Traces  *TracesConfig
}

type MetricsConfig struct {
	Endpoint           string
	CollectionInterval time.Duration
}

type TracesConfig struct {
	Endpoint    string
	SampleRatio float64
}

const (
	defaultServiceName        = "ftsearch"
	defaultCollectionInterval = 60 * time.Second
)

func (c *Config) IsEnabled() bool {
	return c != nil && (c.Metrics != nil || c.Traces != nil)
}

// WithIndexes returns a copy of the config reporting the given indexes.
func (c *Config) WithIndexes(indexes ...string) *Config {
	if c == nil {
		return nil
	}
	cfg := *c
	cfg.Indexes = slices.Compact(slices.Sorted(slices.Values(append(slices.Clone(c.Indexes), indexes...))))
	return &cfg
}

func (c *Config) serviceName() string {
	if c.ServiceName != "" {
		return c.ServiceName
	}
	return defaultServiceName
}

func (c *MetricsConfig) collectionInterval() time.Duration {
	if c.CollectionInterval > 0 {
		return c.CollectionInterval
	}
	return defaultCollectionInterval
}
