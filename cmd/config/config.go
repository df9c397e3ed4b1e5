// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/xataio/ftsearch/pkg/client/redis"
	"github.com/xataio/ftsearch/pkg/otel"
)

const (
	RedisURLEnv          = "FTSEARCH_REDIS_URL"
	LogLevelEnv          = "FTSEARCH_LOG_LEVEL"
	LogFormatEnv         = "FTSEARCH_LOG_FORMAT"
	SchemaFileEnv        = "FTSEARCH_SCHEMA_FILE"
	MetricsEndpointEnv   = "FTSEARCH_METRICS_ENDPOINT"
	MetricsIntervalEnv   = "FTSEARCH_METRICS_COLLECTION_INTERVAL"
	TracesEndpointEnv    = "FTSEARCH_TRACES_ENDPOINT"
	TracesSampleRatioEnv = "FTSEARCH_TRACES_SAMPLE_RATIO"
	OtelServiceNameEnv   = "FTSEARCH_OTEL_SERVICE_NAME"

	RedisTLSEnabledEnv            = "FTSEARCH_REDIS_TLS_ENABLED"
	RedisTLSCACertEnv             = "FTSEARCH_REDIS_TLS_CA_CERT_FILE"
	RedisTLSClientCertEnv         = "FTSEARCH_REDIS_TLS_CLIENT_CERT_FILE"
	RedisTLSClientKeyEnv          = "FTSEARCH_REDIS_TLS_CLIENT_KEY_FILE"
	RedisTLSServerNameEnv         = "FTSEARCH_REDIS_TLS_SERVER_NAME"
	RedisConnectMaxRetriesEnv     = "FTSEARCH_REDIS_CONNECT_MAX_RETRIES"
	RedisConnectInitialBackoffEnv = "FTSEARCH_REDIS_CONNECT_INITIAL_INTERVAL"
)

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file == "" {
		return nil
	}
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if ext == "" {
		return fmt.Errorf("config file %s has no extension: use .env or .yaml", file)
	}
	viper.SetConfigFile(file)
	viper.SetConfigType(ext)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func RedisURL() string {
	switch {
	case viper.GetString("redis.url") != "":
		// yaml config
		return viper.GetString("redis.url")
	default:
		// env config, or CLI argument (with default value)
		return viper.GetString(RedisURLEnv)
	}
}

func LogLevel() string {
	if level := viper.GetString("log.level"); level != "" {
		return level
	}
	return viper.GetString(LogLevelEnv)
}

func LogFormat() string {
	if format := viper.GetString("log.format"); format != "" {
		return format
	}
	return viper.GetString(LogFormatEnv)
}

// SchemaFiles returns the schema definition files to work with. The env
// variable accepts a comma separated list.
func SchemaFiles() []string {
	if files := viper.GetStringSlice("schemas"); len(files) > 0 {
		return files
	}
	files := []string{}
	for _, f := range strings.Split(viper.GetString(SchemaFileEnv), ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// ParseRedisConfig returns the connection settings from the loaded config
// file or the environment. The URL follows RedisURL.
func ParseRedisConfig() (redis.Config, error) {
	var cfg redis.Config
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return redis.Config{}, err
		}
		cfg = yamlCfg.Redis.toExecutorConfig()
	} else {
		cfg = envToRedisConfig()
	}
	cfg.URL = RedisURL()
	return cfg, nil
}

// ParseInstrumentationConfig returns the otel configuration from the loaded
// config file or the environment. A nil config disables instrumentation.
func ParseInstrumentationConfig() (*otel.Config, error) {
	if !isYAMLConfig() {
		return envToOtelConfig()
	}
	yamlCfg := YAMLConfig{}
	if err := viper.Unmarshal(&yamlCfg); err != nil {
		return nil, err
	}
	return yamlCfg.Instrumentation.toOtelConfig()
}

func isYAMLConfig() bool {
	switch filepath.Ext(viper.GetViper().ConfigFileUsed()) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}
