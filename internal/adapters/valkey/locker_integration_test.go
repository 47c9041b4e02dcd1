//go:build integration

package valkey

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupLocker(t *testing.T, ttl time.Duration) *Locker {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "valkey/valkey:8-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	l, err := New(fmt.Sprintf("%s:%s", host, port.Port()), ttl)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	require.NoError(t, l.Ping(ctx))
	return l
}

func TestIntegration_LockExcludesSecondHolder(t *testing.T) {
	l := setupLocker(t, 5*time.Second)

	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 1)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	unlock()

	again, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
}

func TestIntegration_LockExpires(t *testing.T) {
	l := setupLocker(t, 200*time.Millisecond)

	_, err := l.Lock(context.Background(), 2) // never released
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, 2)
	require.NoError(t, err)
	unlock()
}
