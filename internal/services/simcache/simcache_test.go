package simcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/data/repos/testutil"
	types "github.com/yungbote/movierec-backend/internal/domain"
)

type fakeRedis struct {
	data    map[string]string
	lastTTL time.Duration
	getErr  error
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.lastTTL = expiration
	return goredis.NewStatusResult("OK", nil)
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"defaults", func(*Config) {}, true},
		{"disabled ignores ttl", func(c *Config) { c.Mode = ModeDisabled; c.TTL = 0 }, true},
		{"per customer on redis", func(c *Config) { c.Mode = ModePerCustomer; c.Backend = BackendRedis }, true},
		{"per customer on postgres", func(c *Config) { c.Mode = ModePerCustomer }, false},
		{"unknown mode", func(c *Config) { c.Mode = "sometimes" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "memcached" }, false},
		{"unknown policy", func(c *Config) { c.ExhaustedPolicy = "retry" }, false},
		{"zero ttl", func(c *Config) { c.TTL = 0 }, false},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mod(&cfg)
		err := cfg.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: want ok=%v got err=%v", tc.name, tc.ok, err)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key(ModeShared, "c1", "m1"); got != "m1" {
		t.Fatalf("shared key: want=m1 got=%s", got)
	}
	if got := Key(ModePerCustomer, "c1", "m1"); got != "c1|m1" {
		t.Fatalf("per customer key: want=c1|m1 got=%s", got)
	}
}

func TestFreshBoundary(t *testing.T) {
	ttl := time.Hour
	if fresh([]string{"x"}, t0, t0.Add(ttl), ttl) {
		t.Fatalf("entry exactly ttl old must be expired")
	}
	if !fresh([]string{"x"}, t0, t0.Add(ttl-time.Nanosecond), ttl) {
		t.Fatalf("entry ttl-1ns old must be fresh")
	}
	if fresh(nil, t0, t0, ttl) {
		t.Fatalf("empty candidates must be a miss")
	}
}

func TestMovieRowCacheTTLBoundary(t *testing.T) {
	conn, gdb := testutil.Conn(t)
	testutil.SeedMovie(t, gdb, &types.Movie{ID: "fav", Title: "Fav"})
	clock := &fixedClock{t: t0}
	cache := NewMovieRowCache(testutil.Logger(t), repos.NewMovieRepo(conn, testutil.Logger(t)), time.Hour, clock.now)
	ctx := context.Background()

	res, err := cache.Lookup(ctx, "fav")
	if err != nil || res.Hit {
		t.Fatalf("empty row: want miss got=%+v err=%v", res, err)
	}
	if err := cache.Store(ctx, "fav", []string{"x", "y", "z"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	clock.t = t0.Add(time.Hour - time.Nanosecond)
	res, err = cache.Lookup(ctx, "fav")
	if err != nil || !res.Hit || len(res.Candidates) != 3 || res.Candidates[0] != "x" {
		t.Fatalf("ttl-1ns: want hit [x y z] got=%+v err=%v", res, err)
	}

	clock.t = t0.Add(time.Hour)
	res, err = cache.Lookup(ctx, "fav")
	if err != nil || res.Hit {
		t.Fatalf("ttl boundary: want miss got=%+v err=%v", res, err)
	}
}

func TestMovieRowCacheMissingMovieIsMiss(t *testing.T) {
	conn, _ := testutil.Conn(t)
	cache := NewMovieRowCache(testutil.Logger(t), repos.NewMovieRepo(conn, testutil.Logger(t)), time.Hour, nil)
	res, err := cache.Lookup(context.Background(), "nope")
	if err != nil || res.Hit {
		t.Fatalf("missing movie: want miss got=%+v err=%v", res, err)
	}
}

func TestRedisCacheTTLBoundary(t *testing.T) {
	rdb := newFakeRedis()
	clock := &fixedClock{t: t0}
	cache := NewRedisCache(testutil.Logger(t), rdb, "mr", time.Hour, clock.now)
	ctx := context.Background()

	if err := cache.Store(ctx, "fav", []string{"x", "y"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	raw, ok := rdb.data["mr:fav"]
	if !ok {
		t.Fatalf("Store: key mr:fav not written, have=%v", rdb.data)
	}
	if rdb.lastTTL != time.Hour {
		t.Fatalf("Store expiry: want=1h got=%s", rdb.lastTTL)
	}
	var entry types.SimilarityEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || !entry.LastUpdated.Equal(t0) {
		t.Fatalf("stored entry: got=%s err=%v", raw, err)
	}

	clock.t = t0.Add(time.Hour - time.Nanosecond)
	res, err := cache.Lookup(ctx, "fav")
	if err != nil || !res.Hit || len(res.Candidates) != 2 {
		t.Fatalf("ttl-1ns: want hit got=%+v err=%v", res, err)
	}
	clock.t = t0.Add(time.Hour)
	res, err = cache.Lookup(ctx, "fav")
	if err != nil || res.Hit {
		t.Fatalf("ttl boundary: want miss got=%+v err=%v", res, err)
	}
}

func TestRedisCacheMissAndErrors(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewRedisCache(testutil.Logger(t), rdb, "", time.Hour, nil)
	ctx := context.Background()

	res, err := cache.Lookup(ctx, "absent")
	if err != nil || res.Hit {
		t.Fatalf("absent key: want miss got=%+v err=%v", res, err)
	}

	rdb.data[DefaultPrefix+":garbage"] = "{not json"
	res, err = cache.Lookup(ctx, "garbage")
	if err != nil || res.Hit {
		t.Fatalf("unreadable entry: want miss got=%+v err=%v", res, err)
	}

	boom := errors.New("connection refused")
	rdb.getErr = boom
	if _, err := cache.Lookup(ctx, "absent"); !errors.Is(err, boom) {
		t.Fatalf("redis error: want wrapped %v got=%v", boom, err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	log := testutil.Logger(t)
	conn, _ := testutil.Conn(t)
	movies := repos.NewMovieRepo(conn, log)

	cfg := DefaultConfig()
	c, err := New(log, cfg, movies, nil, nil)
	if err != nil {
		t.Fatalf("New postgres: %v", err)
	}
	if _, ok := c.(*movieRowCache); !ok {
		t.Fatalf("New postgres: got=%T", c)
	}

	cfg.Backend = BackendRedis
	if _, err := New(log, cfg, movies, nil, nil); err == nil {
		t.Fatalf("New redis without client: expected error")
	}
	c, err = New(log, cfg, movies, newFakeRedis(), nil)
	if err != nil {
		t.Fatalf("New redis: %v", err)
	}
	if _, ok := c.(*redisCache); !ok {
		t.Fatalf("New redis: got=%T", c)
	}

	cfg.Mode = ModeDisabled
	c, err = New(log, cfg, movies, nil, nil)
	if err != nil || c != nil {
		t.Fatalf("New disabled: want nil,nil got=%v,%v", c, err)
	}
}
