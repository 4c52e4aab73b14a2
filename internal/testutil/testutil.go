// Package testutil holds helpers shared by package tests: a Redis probe for
// cache-backed tests and builders for workflow_run deliveries.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB the helpers use.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

const (
	redisProbeTimeout = 2 * time.Second
	redisLockTTL      = 30 * time.Minute
	redisLockPrefix   = "gha-notifier:testutil:db_lock:"
)

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// requireRedis turns a missing Redis into a failure instead of a skip (CI).
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// redisCandidates lists the addresses probed, in order.
func redisCandidates() []string {
	for _, key := range []string{"TEST_REDIS_ADDR", "REDIS_ADDR"} {
		if addr := strings.TrimSpace(os.Getenv(key)); addr != "" {
			return []string{addr}
		}
	}
	local := strings.TrimSpace(os.Getenv("TEST_REDIS_LOCAL_ADDR"))
	if local == "" {
		local = "localhost:56379"
	}
	// compose service name, plain local install, then the dev compose port
	return []string{"redis:6379", "localhost:6379", local}
}

func ping(addr string, db int) error {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// GetTestRedisAddr returns the first reachable candidate address.
func GetTestRedisAddr(t TestingTB) (string, bool) {
	t.Helper()

	var lastErr error
	for _, addr := range redisCandidates() {
		if lastErr = ping(addr, 0); lastErr == nil {
			return addr, true
		}
	}
	t.Logf("no reachable redis among %v: %v", redisCandidates(), lastErr)
	return "", false
}

// testDB picks the logical database for this test binary. TEST_REDIS_DB wins;
// otherwise one of DB 1..15 is reserved through a lock key in DB 0, so
// packages running in parallel never flush each other's data.
func testDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil && db >= 0 {
			return db
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	defer meta.Close()

	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for db := 1; db <= 15; db++ {
		ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
		ok, err := meta.SetNX(ctx, redisLockPrefix+strconv.Itoa(db), owner, redisLockTTL).Result()
		cancel()
		if err == nil && ok {
			releaseOnCleanup(t, addr, redisLockPrefix+strconv.Itoa(db))
			return db
		}
	}
	t.Logf("all test databases reserved, sharing DB 1 at %s", addr)
	return 1
}

func releaseOnCleanup(t TestingTB, addr, lockKey string) {
	tc, ok := any(t).(interface{ Cleanup(func()) })
	if !ok {
		return
	}
	tc.Cleanup(func() {
		c := redis.NewClient(&redis.Options{Addr: addr})
		defer c.Close()
		ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
		defer cancel()
		if err := c.Del(ctx, lockKey).Err(); err != nil {
			t.Logf("warning: release %s: %v", lockKey, err)
		}
	})
}

// SetupTestRedis returns a client on an emptied, reserved database. The test
// is skipped when no Redis is reachable unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		if requireRedis() {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
	}

	db := testDB(t, addr)
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		if requireRedis() {
			t.Fatalf("prepare redis DB %d at %s: %v", db, addr, err)
		}
		t.Skipf("prepare redis DB %d at %s: %v", db, addr, err)
	}
	return client
}
