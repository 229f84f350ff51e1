package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte(`{"length":7}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v", hit, err)
	}
	if string(data) != `{"length":7}` {
		t.Errorf("Get data = %s", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
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
		t.Errorf("Clear removed %d, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir not empty: %d entries", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("5 2; 10 10 01 01 00;"))
	if h1 != Hash([]byte("5 2; 10 10 01 01 00;")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("5 2; 10 10 01 01 01;")) {
		t.Error("different inputs should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	opts := RunKeyOpts{Method: "spr", MaxTrees: 100, Seed: 1}

	sk := k.SearchKey("m", "t", opts)
	if !strings.HasPrefix(sk, "search:") {
		t.Errorf("SearchKey = %s", sk)
	}
	if !strings.HasPrefix(k.ScoreKey("m", "t", RunKeyOpts{}), "score:") {
		t.Error("ScoreKey should use the score prefix")
	}
	if sk != k.SearchKey("m", "t", opts) {
		t.Error("keys should be deterministic")
	}

	tests := []struct {
		name   string
		matrix string
		tree   string
		opts   RunKeyOpts
	}{
		{"matrix", "m2", "t", opts},
		{"tree", "m", "", opts},
		{"seed", "m", "t", RunKeyOpts{Method: "spr", MaxTrees: 100, Seed: 2}},
		{"method", "m", "t", RunKeyOpts{Method: "nni", MaxTrees: 100, Seed: 1}},
		{"exclude", "m", "t", RunKeyOpts{Method: "spr", MaxTrees: 100, Seed: 1, Exclude: "1-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.SearchKey(tt.matrix, tt.tree, tt.opts) == sk {
				t.Error("changed input should change the key")
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "v2:")
	opts := RunKeyOpts{Method: "nni"}

	if got, want := scoped.SearchKey("m", "t", opts), "v2:"+inner.SearchKey("m", "t", opts); got != want {
		t.Errorf("SearchKey = %s, want %s", got, want)
	}
	if got, want := scoped.ScoreKey("m", "t", opts), "v2:"+inner.ScoreKey("m", "t", opts); got != want {
		t.Errorf("ScoreKey = %s, want %s", got, want)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.ScoreKey("m", "t", opts); got != "p:"+inner.ScoreKey("m", "t", opts) {
		t.Errorf("nil inner: %s", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("default backend = %T, want *FileCache", c)
	}

	c, err = Open(ctx, Config{Backend: BackendNone})
	if err != nil {
		t.Fatalf("Open none: %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}

	if _, err := Open(ctx, Config{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend error = %v", err)
	}
	if _, err := Open(ctx, Config{Backend: BackendFile}); err == nil {
		t.Error("file backend without a directory should fail")
	}
}

// =============================================================================
// Redis
// =============================================================================

// fakeRedis is an in-memory redisClient. Errors queued in fail are returned
// by the next calls, one per call.
type fakeRedis struct {
	data   map[string][]byte
	ttl    map[string]time.Duration
	fail   []error
	calls  int
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) nextErr() error {
	f.calls++
	if len(f.fail) == 0 {
		return nil
	}
	err := f.fail[0]
	f.fail = f.fail[1:]
	return err
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if err := f.nextErr(); err != nil {
		return redis.NewStringResult("", err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if err := f.nextErr(); err != nil {
		return redis.NewStatusResult("", err)
	}
	f.data[key] = value.([]byte)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if err := f.nextErr(); err != nil {
		return redis.NewIntResult(0, err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd { return redis.NewStatusResult("PONG", nil) }

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := newRedisCache(fake)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("empty Get: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), TTLSearch); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := fake.data["parsimony:k"]; !ok {
		t.Error("keys should carry the parsimony: prefix")
	}
	if fake.ttl["parsimony:k"] != TTLSearch {
		t.Errorf("ttl = %v, want %v", fake.ttl["parsimony:k"], TTLSearch)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Close(); err != nil || !fake.closed {
		t.Error("Close should close the client")
	}
}

func TestRedisCacheRetriesNetworkErrors(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	ctx := context.Background()
	fake := newFakeRedis()
	fake.data["parsimony:k"] = []byte("v")
	fake.fail = []error{&net.OpError{Op: "read", Err: errors.New("connection reset")}}
	c := newRedisCache(fake)

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get after transient failure = %q, %v, %v", data, hit, err)
	}
	if fake.calls != 2 {
		t.Errorf("calls = %d, want 2", fake.calls)
	}

	fake.calls = 0
	fake.fail = []error{errors.New("WRONGTYPE")}
	if err := c.Set(ctx, "k", []byte("v"), 0); err == nil {
		t.Error("server error should be returned")
	}
	if fake.calls != 1 {
		t.Errorf("server errors should not be retried: %d calls", fake.calls)
	}

	fake.calls = 0
	netErr := &net.OpError{Op: "dial", Err: errors.New("refused")}
	fake.fail = []error{netErr, netErr, netErr}
	err = c.Delete(ctx, "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("persistent network error = %v, want ErrUnavailable", err)
	}
	if fake.calls != retryAttempts {
		t.Errorf("calls = %d, want %d", fake.calls, retryAttempts)
	}
}

// =============================================================================
// Retry
// =============================================================================

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("message not preserved: %s", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap")
	}
	if IsRetryable(ErrUnknownBackend) {
		t.Error("plain errors are not retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrUnknownBackend })
	if err != ErrUnknownBackend || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
