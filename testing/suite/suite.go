// Package suite starts throwaway PostgreSQL and Redis containers for integration tests.
package suite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/palace/internal/database"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	postgresPort     = "5432/tcp"
	postgresImage    = "postgres"
	postgresTag      = "16-alpine"
	postgresUser     = "palace"
	postgresPassword = "palace"
	postgresDB       = "palace"
)

type Suite struct {
	*testing.T
	Logger *logrus.Logger

	pool *dockertest.Pool
}

// New connects to the local docker daemon. Tests are skipped when docker is unavailable.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("could not connect to docker: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker is not reachable: %v", err)
	}
	pool.MaxWait = maxWaitDuration

	return ctx, &Suite{T: t, Logger: logger, pool: pool}
}

func (s *Suite) run(opts *dockertest.RunOptions) *dockertest.Resource {
	s.Helper()

	// pulls an image, creates a container based on it and runs it
	resource, err := s.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		s.Fatalf("could not start %s: %v", opts.Repository, err)
	}

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	s.Cleanup(func() {
		if err := s.pool.Purge(resource); err != nil {
			s.Logf("could not purge %s: %v", opts.Repository, err)
		}
	})
	return resource
}

// Redis starts a Redis container and returns a flushed client.
func (s *Suite) Redis(ctx context.Context) *redis.Client {
	s.Helper()

	resource := s.run(&dockertest.RunOptions{Repository: redisImage, Tag: redisTag})
	addr := resource.GetHostPort(redisPort)

	var client *redis.Client
	if err := s.pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: addr})
		return client.Ping(ctx).Err()
	}); err != nil {
		s.Fatalf("could not connect to redis: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		s.Fatalf("could not flush database: %v", err)
	}
	s.Cleanup(func() { _ = client.Close() })
	return client
}

// Postgres starts a PostgreSQL container, applies the schema and returns a pool.
func (s *Suite) Postgres(ctx context.Context) *pgxpool.Pool {
	s.Helper()

	resource := s.run(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=" + postgresUser,
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDB,
		},
	})
	url := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		postgresUser, postgresPassword, resource.GetHostPort(postgresPort), postgresDB)

	var pool *pgxpool.Pool
	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := s.pool.Retry(func() error {
		var err error
		pool, err = database.Connect(ctx, url, s.Logger)
		return err
	}); err != nil {
		s.Fatalf("could not connect to postgres: %v", err)
	}
	s.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		s.Fatalf("could not migrate: %v", err)
	}
	return pool
}
