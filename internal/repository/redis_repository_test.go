package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func TestRedisKVStore_SetGetDelete(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := ConnectRedis(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	store := NewRedisKVStore(client)
	key := "nurse_connect_test_" + uuid.NewString()
	defer func() { _ = store.Delete(ctx, key) }()

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get(missing) = ok:%v err:%v, want absent", ok, err)
	}
	if err := store.Set(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get(ctx, key)
	if err != nil || !ok || string(got) != `[]` {
		t.Fatalf("Get = %q ok:%v err:%v", got, ok, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, key); ok {
		t.Fatalf("key still present after Delete")
	}
}
