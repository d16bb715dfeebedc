package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if h != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
	if len(h) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(h))
	}
}

func TestHashJSON(t *testing.T) {
	type row struct {
		Item string   `json:"item"`
		Mats []string `json:"mats"`
	}
	a, err := HashJSON([]row{{"A-1", []string{"M1", "M2"}}})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := HashJSON([]row{{"A-1", []string{"M1", "M2"}}})
	c, _ := HashJSON([]row{{"A-1", []string{"M2", "M1"}}})
	if a != b {
		t.Error("equal values should share a digest")
	}
	if a == c {
		t.Error("material order is part of the encoding")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("expected error for unencodable value")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := SequenceKeyOpts{Quality: "balanced", Timeout: 5 * time.Second}
	sk1 := k.SequenceKey("jobs123", base)
	if sk1 != k.SequenceKey("jobs123", base) {
		t.Error("SequenceKey should be deterministic")
	}
	if !strings.HasPrefix(sk1, "sequence:") {
		t.Errorf("SequenceKey unexpected prefix: %s", sk1)
	}

	variants := []SequenceKeyOpts{
		{Quality: "fast", Timeout: 5 * time.Second},
		{Quality: "balanced", Timeout: time.Second},
		{Quality: "balanced", Timeout: 5 * time.Second, LayerMode: "TB"},
		{Quality: "balanced", Timeout: 5 * time.Second, Priority: []string{"A"}},
		{Quality: "balanced", Timeout: 5 * time.Second, Manual: []string{"(A,Top)"}},
	}
	for _, v := range variants {
		if k.SequenceKey("jobs123", v) == sk1 {
			t.Errorf("SequenceKeyOpts %+v should produce a different key", v)
		}
	}
	if k.SequenceKey("jobs456", base) == sk1 {
		t.Error("Different job hashes should produce different keys")
	}

	ak1 := k.ArtifactKey("report123", "svg")
	ak2 := k.ArtifactKey("report123", "csv")
	if ak1 == ak2 {
		t.Error("Different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "line:3:")

	key := scoped.SequenceKey("h", SequenceKeyOpts{})
	if key != "line:3:"+inner.SequenceKey("h", SequenceKeyOpts{}) {
		t.Errorf("ScopedKeyer SequenceKey should be prefixed: %s", key)
	}

	art := scoped.ArtifactKey("h", "svg")
	if !strings.HasPrefix(art, "line:3:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", art)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", "csv")
	if key != "prefix:"+NewDefaultKeyer().ArtifactKey("h", "csv") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl should never expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v err %v, want clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty, has %d entries", len(entries))
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("")
	if err != nil || opts.Addr != "localhost:6379" {
		t.Errorf("default addr = %v, %v", opts, err)
	}
	opts, err = redisOptions("cache.internal:6380")
	if err != nil || opts.Addr != "cache.internal:6380" {
		t.Errorf("host:port addr = %v, %v", opts, err)
	}
	opts, err = redisOptions("redis://:secret@cache.internal:6379/2")
	if err != nil {
		t.Fatalf("redis url: %v", err)
	}
	if opts.Addr != "cache.internal:6379" || opts.DB != 2 || opts.Password != "secret" {
		t.Errorf("parsed url = %+v", opts)
	}
}

// TestRedisCache runs against a live server when CHANGEOVER_TEST_REDIS is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CHANGEOVER_TEST_REDIS")
	if addr == "" {
		t.Skip("CHANGEOVER_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "changeover:test:" + t.Name()
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("key should be gone after Delete")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := fmt.Errorf("connect: %w", Retryable(ErrUnavailable))
	if !IsRetryable(err) {
		t.Error("wrapped retryable error not detected")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("retryable error should unwrap to its cause")
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("unmarked error reported as retryable")
	}
}

func TestBackoffRetry(t *testing.T) {
	permanent := errors.New("bad password")
	b := Backoff{Attempts: 3, Initial: time.Millisecond}

	tests := []struct {
		name      string
		failures  int   // retryable failures before success
		final     error // returned once failures are used up
		wantCalls int
		wantErr   error
	}{
		{"first try", 0, nil, 1, nil},
		{"recovers", 2, nil, 3, nil},
		{"exhausted", 5, nil, 3, ErrUnavailable},
		{"permanent", 0, permanent, 1, permanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Retry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return Retryable(ErrUnavailable)
				}
				return tt.final
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Initial: time.Hour}.Retry(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: 300 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := b.delay(i); got != w {
			t.Errorf("delay(%d) = %s, want %s", i, got, w)
		}
	}
}

func TestBackoffPing(t *testing.T) {
	pings := 0
	err := Backoff{Attempts: 2, Initial: time.Millisecond}.Ping(context.Background(), "redis localhost:6379",
		func(context.Context) error {
			pings++
			return errors.New("connection refused")
		})
	if pings != 2 {
		t.Errorf("pings = %d, want 2", pings)
	}
	if !errors.Is(err, ErrUnavailable) || !strings.Contains(err.Error(), "redis localhost:6379") {
		t.Errorf("err = %v", err)
	}
}
