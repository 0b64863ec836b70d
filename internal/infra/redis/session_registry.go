package redis

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRegistry is a Redis-aware implementation of app.SessionRegistry.
// Notes:
//   - The claim is a SET NX liveness key, so the one-session-per-owner
//     invariant holds across service instances sharing the Redis.
//   - The TTL bounds how long a crashed instance can hold an owner hostage;
//     live sessions are released explicitly on cleanup.
//   - The coordinator's local map still guards the in-process invariant, so
//     Redis outages degrade to single-instance enforcement rather than
//     blocking session starts.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{client: client, ttl: ttl}
}

func (r *SessionRegistry) Claim(ownerID string) bool {
	ok, err := r.client.SetNX(context.Background(), r.key(ownerID), "1", r.ttl).Result()
	if err != nil {
		log.Printf("redis session claim for owner %s failed, allowing local claim: %v", ownerID, err)
		return true
	}
	return ok
}

func (r *SessionRegistry) Release(ownerID string) {
	_ = r.client.Del(context.Background(), r.key(ownerID)).Err()
}

func (r *SessionRegistry) key(ownerID string) string {
	return "quiz:owner:" + ownerID
}
