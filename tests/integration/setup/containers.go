package setup

import (
	"context"
	"fmt"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestInfra is the set of containers a comment thread server needs.
type TestInfra struct {
	Postgres *postgres.PostgresContainer
	Redis    *redis.RedisContainer
	MinIO    testcontainers.Container
	MailHog  testcontainers.Container

	PgURL       string
	RedisURL    string
	MinioURL    string
	MailhogURL  string
	MailhogSMTP string
}

func StartInfra(ctx context.Context, t *testing.T) (*TestInfra, error) {
	infra := &TestInfra{}

	t.Log("Starting PostgreSQL container...")
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("virdanthread_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}
	infra.Postgres = pgContainer

	infra.PgURL, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return infra, fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	t.Log("Starting Redis container...")
	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Ready to accept connections")),
	)
	if err != nil {
		return infra, fmt.Errorf("failed to start redis: %w", err)
	}
	infra.Redis = redisContainer

	infra.RedisURL, err = hostPort(ctx, redisContainer, "6379")
	if err != nil {
		return infra, err
	}

	t.Log("Starting MinIO container...")
	infra.MinIO, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "minio/minio:latest",
			Cmd:   []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			ExposedPorts: []string{"9000/tcp"},
			WaitingFor:   wait.ForListeningPort("9000/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return infra, fmt.Errorf("failed to start minio: %w", err)
	}

	infra.MinioURL, err = hostPort(ctx, infra.MinIO, "9000")
	if err != nil {
		return infra, err
	}

	t.Log("Starting MailHog container...")
	infra.MailHog, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mailhog/mailhog:latest",
			ExposedPorts: []string{"1025/tcp", "8025/tcp"},
			WaitingFor:   wait.ForListeningPort("1025/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return infra, fmt.Errorf("failed to start mailhog: %w", err)
	}

	infra.MailhogSMTP, err = hostPort(ctx, infra.MailHog, "1025")
	if err != nil {
		return infra, err
	}

	mailhogAPI, err := hostPort(ctx, infra.MailHog, "8025")
	if err != nil {
		return infra, err
	}
	infra.MailhogURL = "http://" + mailhogAPI

	t.Logf("Infrastructure ready: postgres=%s redis=%s minio=%s mailhog=%s", infra.PgURL, infra.RedisURL, infra.MinioURL, infra.MailhogURL)

	return infra, nil
}

func hostPort(ctx context.Context, container testcontainers.Container, port string) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", fmt.Errorf("failed to get mapped port %s: %w", port, err)
	}

	return fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}

func (infra *TestInfra) Terminate(ctx context.Context, t *testing.T) {
	containers := []testcontainers.Container{infra.MailHog, infra.MinIO}
	if infra.Redis != nil {
		containers = append(containers, infra.Redis)
	}
	if infra.Postgres != nil {
		containers = append(containers, infra.Postgres)
	}

	for _, container := range containers {
		if container == nil {
			continue
		}

		err := container.Terminate(ctx)
		if err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
}
