package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionRegistryClaimsAcrossClients(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	registry := NewSessionRegistry(client, time.Minute)

	if !registry.Claim("u1") {
		t.Fatal("first claim should succeed")
	}
	if !mr.Exists("quiz:owner:u1") {
		t.Fatal("expected redis key to be set")
	}

	// a second registry sharing the redis sees the claim
	other := NewSessionRegistry(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	if other.Claim("u1") {
		t.Fatal("claim should be visible across instances")
	}

	registry.Release("u1")
	if mr.Exists("quiz:owner:u1") {
		t.Fatal("expected redis key to be removed")
	}
	if !other.Claim("u1") {
		t.Fatal("claim after release should succeed")
	}
}

func TestSessionRegistryClaimExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	registry := NewSessionRegistry(client, time.Minute)

	if !registry.Claim("u1") {
		t.Fatal("claim should succeed")
	}
	mr.FastForward(2 * time.Minute)
	if !registry.Claim("u1") {
		t.Fatal("claim should succeed after the liveness key expired")
	}
}
