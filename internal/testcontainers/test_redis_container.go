// SPDX-License-Identifier: Apache-2.0

package testcontainers

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type cleanup func() error

// RedisStackImage bundles the search and JSON modules.
const RedisStackImage = "redis/redis-stack-server:7.2.0-v10"

func SetupRedisContainer(ctx context.Context, redisURL *string) (cleanup, error) {
	req := testcontainers.ContainerRequest{
		Image:        RedisStackImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithOccurrence(1).
			WithStartupTimeout(30 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieving host for redis container: %w", err)
	}

	mappedPort, err := ctr.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return nil, fmt.Errorf("retrieving mapped port for redis container: %w", err)
	}

	*redisURL = fmt.Sprintf("redis://%s:%s/0", host, mappedPort.Port())

	return func() error {
		return ctr.Terminate(ctx)
	}, nil
}
