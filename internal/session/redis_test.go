package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, "front-desk")
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Expected ErrNoSession, got %v", err)
	}

	if err := store.Save(ctx, "session_abc_1"); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	got, err := mr.Get("shop-console:session:front-desk")
	if err != nil || got != "session_abc_1" {
		t.Errorf("Expected stored token, got %q (%v)", got, err)
	}
}

func TestRedisReplicasShareSession(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	first, err := NewManager(NewRedisStore(client, "desk"), testLogger()).ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := NewManager(NewRedisStore(client, "desk"), testLogger()).ID(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("Expected replicas to share %q, got %q", first, second)
	}
}

func TestRedisSaveKeepsFirstToken(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client, "desk")
	ctx := context.Background()

	store.Save(ctx, "session_first_1")
	store.Save(ctx, "session_second_2")

	got, _ := store.Load(ctx)
	if got != "session_first_1" {
		t.Errorf("Expected first token to win, got %q", got)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	client.Close()

	if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Error("Expected invalid URL error")
	}
}

func TestOpenRedisBackend(t *testing.T) {
	mr, _ := setupTestRedis(t)

	store, closeFn, err := Open(context.Background(), Options{
		Backend:    "redis",
		RedisURL:   "redis://" + mr.Addr(),
		ClientName: "desk",
	}, testLogger())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer closeFn()

	if _, ok := store.(*RedisStore); !ok {
		t.Errorf("Expected RedisStore, got %T", store)
	}
}
