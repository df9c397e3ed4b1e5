// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/spf13/viper"
	"github.com/xataio/ftsearch/pkg/client/redis"
	"github.com/xataio/ftsearch/pkg/otel"
	"github.com/xataio/ftsearch/pkg/tls"
)

func envToRedisConfig() redis.Config {
	return redis.Config{
		URL: viper.GetString(RedisURLEnv),
		TLS: tls.Config{
			Enabled:        viper.GetBool(RedisTLSEnabledEnv),
			CaCertFile:     viper.GetString(RedisTLSCACertEnv),
			ClientCertFile: viper.GetString(RedisTLSClientCertEnv),
			ClientKeyFile:  viper.GetString(RedisTLSClientKeyEnv),
			ServerName:     viper.GetString(RedisTLSServerNameEnv),
		},
		ConnectBackoff: connectBackoffConfig(viper.GetUint(RedisConnectMaxRetriesEnv), viper.GetDuration(RedisConnectInitialBackoffEnv)),
	}
}

func envToOtelConfig() (*otel.Config, error) {
	metricsEndpoint := viper.GetString(MetricsEndpointEnv)
	tracesEndpoint := viper.GetString(TracesEndpointEnv)
	if metricsEndpoint == "" && tracesEndpoint == "" {
		return nil, nil
	}

	cfg := &otel.Config{ServiceName: viper.GetString(OtelServiceNameEnv)}
	if metricsEndpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           metricsEndpoint,
			CollectionInterval: viper.GetDuration(MetricsIntervalEnv),
		}
	}
	if tracesEndpoint != "" {
		ratio := viper.GetFloat64(TracesSampleRatioEnv)
		if err := validateSampleRatio(ratio); err != nil {
			return nil, err
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    tracesEndpoint,
			SampleRatio: ratio,
		}
	}
	return cfg, nil
}
