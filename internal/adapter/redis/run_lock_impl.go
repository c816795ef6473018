package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const runLockKey = "crawler:run_lock"

// releaseScript deletes the lock only when it still holds the caller's owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLockRepoImpl provides a concrete implementation for the RunLockRepository interface using Redis.
type RunLockRepoImpl struct {
	client *redis.Client
	key    string
}

// NewRunLockRepo creates a new instance of RunLockRepoImpl.
func NewRunLockRepo(client *redis.Client) *RunLockRepoImpl {
	return &RunLockRepoImpl{client: client, key: runLockKey}
}

// Connect creates a client and checks that the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Acquire takes the lock with SET NX so only one process crawls at a time.
// The TTL frees the lock if its holder dies.
func (r *RunLockRepoImpl) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.key, owner, ttl).Result()
}

// Release drops the lock if owner still holds it.
func (r *RunLockRepoImpl) Release(ctx context.Context, owner string) error {
	return releaseScript.Run(ctx, r.client, []string{r.key}, owner).Err()
}
