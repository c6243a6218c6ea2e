package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type view struct {
	Name string `json:"name"`
}

// nothing listens on port 1, so every command fails fast
func unreachable() *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestViewCache_DegradesToMiss(t *testing.T) {
	rdb := unreachable()
	defer rdb.Close()
	c := NewViewCache[view](rdb, "profile", time.Minute)
	ctx := context.Background()

	c.Set(ctx, "42", &view{Name: "ana"})
	if v, ok := c.Get(ctx, "42"); ok || v != nil {
		t.Fatalf("expected a miss, got %+v", v)
	}
	c.Delete(ctx, "42")
}

func TestViewCache_Key(t *testing.T) {
	c := NewViewCache[view](nil, "profile", 0)
	if got := c.key("42"); got != "profile:42" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	if _, err := NewClient("127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}
