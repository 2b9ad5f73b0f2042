package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newFileCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	report := []byte(`{"feasible":true,"status":"optimal"}`)

	if _, hit, err := c.Get(ctx, "solve:abc"); hit || err != nil {
		t.Fatalf("Get before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "solve:abc", report, 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "solve:abc")
	if err != nil || !hit || string(data) != string(report) {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	for range 2 {
		if err := c.Delete(ctx, "solve:abc"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	}
	if _, hit, _ := c.Get(ctx, "solve:abc"); hit {
		t.Error("entry survived Delete")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	if err := c.Set(ctx, "short", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "long", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "long"); !hit {
		t.Error("live entry missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	path := c.path("flows:h")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "flows:h"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v; want clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClearAndPrune(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	for key, ttl := range map[string]time.Duration{"a": 0, "b": time.Hour, "c": time.Nanosecond, "d": time.Nanosecond} {
		if err := c.Set(ctx, key, []byte(key), ttl); err != nil {
			t.Fatal(err)
		}
	}
	// Files the cache does not own survive both sweeps.
	foreign := filepath.Join(c.Dir(), "README")
	if err := os.WriteFile(foreign, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	if n, err := c.Prune(ctx); err != nil || n != 2 {
		t.Errorf("Prune() = %d, %v; want 2", n, err)
	}
	if _, hit, _ := c.Get(ctx, "b"); !hit {
		t.Error("Prune removed a live entry")
	}
	if n, err := c.Clear(ctx); err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v; want 2", n, err)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Errorf("foreign file removed: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if data, hit, err := c.Get(ctx, "k"); hit || data != nil || err != nil {
		t.Errorf("Get = %q, %v, %v; want a clean miss", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Error(err)
	}
	if _, ok := c.(Clearer); ok {
		t.Error("NullCache should not claim to be clearable")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		opts    Options
		check   func(Cache) bool
		wantErr error
	}{
		{Options{Backend: BackendNone}, func(c Cache) bool { _, ok := c.(NullCache); return ok }, nil},
		{Options{Backend: BackendFile, Dir: t.TempDir()}, func(c Cache) bool { _, ok := c.(*FileCache); return ok }, nil},
		{Options{Dir: t.TempDir()}, func(c Cache) bool { _, ok := c.(*FileCache); return ok }, nil},
		{Options{Backend: "memcached"}, nil, ErrUnknownBackend},
	}
	for _, tt := range tests {
		c, err := Open(ctx, tt.opts)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open(%q) error = %v, want %v", tt.opts.Backend, err, tt.wantErr)
			}
			continue
		}
		if err != nil || !tt.check(c) {
			t.Errorf("Open(%q) = %T, %v", tt.opts.Backend, c, err)
		}
	}
}

func TestOpenRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Open(ctx, Options{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"})
	if !errors.Is(err, ErrBackend) || c != nil {
		t.Errorf("Open(redis) = %T, %v; want nil, ErrBackend", c, err)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("ore")) != Hash([]byte("ore")) || Hash([]byte("ore")) == Hash([]byte("plate")) {
		t.Error("Hash is not a function of its input")
	}
	if n := len(Hash(nil)); n != 64 {
		t.Errorf("len(Hash) = %d, want 64", n)
	}

	a, _ := HashJSON(map[string]float64{"miner": 1, "furnace": 2})
	b, _ := HashJSON(map[string]float64{"furnace": 2, "miner": 1})
	if a != b {
		t.Error("HashJSON depends on map order")
	}
	if _, err := HashJSON(func() {}); err == nil {
		t.Error("HashJSON accepted an unencodable value")
	}
}

func TestKeyers(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "api:")
	nilInner := NewScopedKeyer(nil, "cli:")

	if got := base.FlowsKey("h"); got != "flows:h" {
		t.Errorf("FlowsKey = %q", got)
	}
	if got := scoped.FlowsKey("h"); got != "api:flows:h" {
		t.Errorf("scoped FlowsKey = %q", got)
	}
	if got := nilInner.FlowsKey("h"); got != "cli:flows:h" {
		t.Errorf("nil-inner FlowsKey = %q", got)
	}

	solve := base.SolveKey("h", SolveKeyOpts{})
	distinct := []string{
		solve,
		base.SolveKey("h", SolveKeyOpts{AllowDeficiency: true}),
		base.SolveKey("h", SolveKeyOpts{Weights: map[string]float64{"miner": 2}}),
		base.SolveKey("other", SolveKeyOpts{}),
		base.RenderKey("h", RenderKeyOpts{Format: "svg"}),
		base.RenderKey("h", RenderKeyOpts{Format: "dot"}),
	}
	seen := map[string]bool{}
	for _, k := range distinct {
		if seen[k] {
			t.Errorf("duplicate key %q", k)
		}
		seen[k] = true
	}
	if !strings.HasPrefix(solve, "solve:") || scoped.SolveKey("h", SolveKeyOpts{}) != "api:"+solve {
		t.Errorf("solve keys: %q, scoped %q", solve, scoped.SolveKey("h", SolveKeyOpts{}))
	}
}
