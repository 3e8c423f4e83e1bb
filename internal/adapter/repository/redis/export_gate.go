package redis

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// releaseOwned deletes the lock only when the caller still owns it.
var releaseOwned = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendOwned pushes the lock expiry out while the caller still owns it.
var extendOwned = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ExportGate implements usecase.ExportGate with a Redis lock per day, so
// replicas sharing the ledger never export the same day at once.
type ExportGate struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewExportGate creates a new ExportGate. ttl bounds how long a crashed
// holder keeps the day locked; a live holder extends the lock every ttl/3
// until it releases.
func NewExportGate(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ExportGate {
	return &ExportGate{
		client: client,
		prefix: "cashledger:export:",
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire claims day or fails with domain.ErrExportInProgress.
func (g *ExportGate) Acquire(ctx context.Context, day domain.Day) (func(), error) {
	key := g.prefix + day.String()
	token := ulid.Make().String()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrExportInProgress
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go g.keepAlive(key, token, day, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped

			// The run context may already be done; release on a fresh one.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseOwned.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
				g.logger.Warn().Err(err).Str("day", day.String()).Msg("failed to release export lock")
			}
		})
	}, nil
}

func (g *ExportGate) keepAlive(key, token string, day domain.Day, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(max(g.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			owned, err := extendOwned.Run(ctx, g.client, []string{key}, token, g.ttl.Milliseconds()).Int()
			cancel()

			switch {
			case err != nil:
				g.logger.Warn().Err(err).Str("day", day.String()).Msg("failed to extend export lock")
			case owned == 0:
				g.logger.Error().Str("day", day.String()).Msg("export lock lost")
				return
			}
		}
	}
}
