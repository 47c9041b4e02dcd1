package valkey

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/geosurvey/internal/core/ports"
)

var (
	// PX expiry keeps a crashed holder from blocking the user forever.
	acquireScript = valkey.NewLuaScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
  return 1
end
return 0`)

	releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Locker implements ports.SubmissionLocker with a Valkey key per user.
type Locker struct {
	client   valkey.Client
	ttl      time.Duration
	retry    time.Duration
	fallback ports.SubmissionLocker
}

// New creates a Valkey client and a Locker on top of it.
func New(addr string, ttl time.Duration) (*Locker, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client valkey.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// WithFallback sets a locker used while Valkey commands fail.
func (l *Locker) WithFallback(f ports.SubmissionLocker) *Locker {
	l.fallback = f
	return l
}

func lockKey(userID int64) string {
	return "geosurvey:submit-lock:" + strconv.FormatInt(userID, 10)
}

// Lock polls until the user's key is set or ctx is done.
func (l *Locker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := lockKey(userID)
	token := uuid.NewString()
	ttlMs := strconv.FormatInt(l.ttl.Milliseconds(), 10)

	for {
		ok, err := acquireScript.Exec(ctx, l.client, []string{key}, []string{token, ttlMs}).AsInt64()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
			}
			if l.fallback != nil {
				slog.Warn("valkey lock unavailable, using fallback lock", "key", key, "error", err)
				return l.fallback.Lock(ctx, userID)
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok == 1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		// release even if the request context is already cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Exec(rctx, l.client, []string{key}, []string{token}).Error(); err != nil {
			slog.Warn("release submission lock", "key", key, "error", err)
		}
	}, nil
}

// Ping checks connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Do(ctx, l.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (l *Locker) Close() {
	l.client.Close()
}
