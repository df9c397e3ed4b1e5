// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"time"

	"github.com/xataio/ftsearch/internal/backoff"
	"github.com/xataio/ftsearch/pkg/client/redis"
	"github.com/xataio/ftsearch/pkg/otel"
	"github.com/xataio/ftsearch/pkg/tls"
)

// YAMLConfig is the layout of the yaml configuration file:
//
//	redis:
//	  url: redis://localhost:6379/0
//	  tls:
//	    enabled: true
//	    ca_cert_file: /etc/redis/ca.pem
//	  connect:
//	    max_retries: 5
//	    initial_interval: 500 # milliseconds
//	log:
//	  level: info
//	  format: json
//	schemas:
//	  - schemas/movie.yaml
//	instrumentation:
//	  service_name: ftsearch
//	  metrics:
//	    endpoint: localhost:4317
//	    collection_interval: 60
//	  traces:
//	    endpoint: localhost:4317
//	    sample_ratio: 0.5
type YAMLConfig struct {
	Redis           RedisConfig           `mapstructure:"redis" yaml:"redis"`
	Log             LogConfig             `mapstructure:"log" yaml:"log"`
	Schemas         []string              `mapstructure:"schemas" yaml:"schemas"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type RedisConfig struct {
	URL     string             `mapstructure:"url" yaml:"url"`
	TLS     TLSConfig          `mapstructure:"tls" yaml:"tls"`
	Connect RedisConnectConfig `mapstructure:"connect" yaml:"connect"`
}

type TLSConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	CaCertFile     string `mapstructure:"ca_cert_file" yaml:"ca_cert_file"`
	ClientCertFile string `mapstructure:"client_cert_file" yaml:"client_cert_file"`
	ClientKeyFile  string `mapstructure:"client_key_file" yaml:"client_key_file"`
	ServerName     string `mapstructure:"server_name" yaml:"server_name"`
}

type RedisConnectConfig struct {
	MaxRetries uint `mapstructure:"max_retries" yaml:"max_retries"`
	// milliseconds
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type InstrumentationConfig struct {
	ServiceName string         `mapstructure:"service_name" yaml:"service_name"`
	Metrics     *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces      *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// seconds
	CollectionInterval int `mapstructure:"collection_interval" yaml:"collection_interval"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

var (
	errMissingMetricsEndpoint = errors.New("metrics endpoint is required when metrics are configured")
	errMissingTracesEndpoint  = errors.New("traces endpoint is required when traces are configured")
	errInvalidSampleRatio     = errors.New("traces sample ratio must be between 0 and 1")
)

func (c InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	if c.Metrics == nil && c.Traces == nil {
		return nil, nil
	}

	cfg := &otel.Config{ServiceName: c.ServiceName}
	if c.Metrics != nil {
		if c.Metrics.Endpoint == "" {
			return nil, errMissingMetricsEndpoint
		}
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
		}
	}
	if c.Traces != nil {
		if c.Traces.Endpoint == "" {
			return nil, errMissingTracesEndpoint
		}
		if err := validateSampleRatio(c.Traces.SampleRatio); err != nil {
			return nil, err
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}
	return cfg, nil
}

func validateSampleRatio(ratio float64) error {
	if ratio < 0 || ratio > 1 {
		return errInvalidSampleRatio
	}
	return nil
}

func (c RedisConfig) toExecutorConfig() redis.Config {
	return redis.Config{
		URL: c.URL,
		TLS: tls.Config{
			Enabled:        c.TLS.Enabled,
			CaCertFile:     c.TLS.CaCertFile,
			ClientCertFile: c.TLS.ClientCertFile,
			ClientKeyFile:  c.TLS.ClientKeyFile,
			ServerName:     c.TLS.ServerName,
		},
		ConnectBackoff: connectBackoffConfig(c.Connect.MaxRetries, time.Duration(c.Connect.InitialInterval)*time.Millisecond),
	}
}

// connectBackoffConfig returns an exponential backoff config, or nil when no
// retries are configured.
func connectBackoffConfig(maxRetries uint, initialInterval time.Duration) *backoff.Config {
	if maxRetries == 0 {
		return nil
	}
	return &backoff.Config{
		Exponential: &backoff.ExponentialConfig{
			InitialInterval: initialInterval,
			MaxRetries:      maxRetries,
		},
	}
}
