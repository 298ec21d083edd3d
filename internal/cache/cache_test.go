package cache

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"
)

type memStore struct {
	data    map[string][]byte
	failGet bool
	failSet bool
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	return m.data[key], nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	if m.failSet {
		return errors.New("connection refused")
	}
	m.data[key] = val
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) InvalidatePattern(_ context.Context, pattern string) (int, error) {
	n := 0
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func TestCacheRoundTrip(t *testing.T) {
	store := &memStore{data: map[string][]byte{}}
	c := New(store, nil)
	ctx := context.Background()

	var got []string
	if c.Get(ctx, "k", &got) != Miss {
		t.Fatal("expected miss on empty cache")
	}
	c.Set(ctx, "k", []string{"a", "b"}, time.Minute)
	if c.Get(ctx, "k", &got) != Hit || len(got) != 2 {
		t.Fatalf("expected hit with 2 values, got %v", got)
	}
	c.Del(ctx, "k")
	if c.Get(ctx, "k", &got) != Miss {
		t.Fatal("expected miss after delete")
	}
}

func TestCacheSwallowsErrors(t *testing.T) {
	store := &memStore{data: map[string][]byte{"bad": []byte("{not json")}, failSet: true}
	c := New(store, nil)
	ctx := context.Background()

	var v map[string]int
	if c.Get(ctx, "bad", &v) != Miss {
		t.Error("undecodable value should be a miss")
	}
	c.Set(ctx, "k", 1, time.Minute)
	if _, ok := store.data["k"]; ok {
		t.Error("failed set should not store anything")
	}

	store.failGet = true
	if c.Get(ctx, "bad", &v) != Miss {
		t.Error("read failure should be a miss")
	}
}

func TestCacheDisabled(t *testing.T) {
	var c *Cache
	if c.Enabled() {
		t.Fatal("nil cache should be disabled")
	}
	c2 := New(nil, nil)
	var v int
	if c2.Get(context.Background(), "k", &v) != Miss {
		t.Error("disabled cache should always miss")
	}
	c2.Set(context.Background(), "k", 1, time.Minute)
	if n := c2.InvalidatePattern(context.Background(), "*"); n != 0 {
		t.Errorf("disabled cache invalidated %d keys", n)
	}
}

func TestInvalidatePattern(t *testing.T) {
	store := &memStore{data: map[string][]byte{
		"listing:draft:a": []byte("1"),
		"listing:draft:b": []byte("2"),
		"keywords:asin:x": []byte("3"),
	}}
	c := New(store, nil)
	if n := c.InvalidatePattern(context.Background(), "listing:draft:*"); n != 2 {
		t.Fatalf("expected 2 invalidated keys, got %d", n)
	}
	if _, ok := store.data["keywords:asin:x"]; !ok {
		t.Error("unrelated key should survive")
	}
}
