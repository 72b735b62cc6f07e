package searchcore

import (
	"context"
	"testing"
)

func TestOpen_DefaultsToMemory(t *testing.T) {
	e, err := Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	res, err := e.Search(context.Background(), Query{Type: TypeUsers}, false)
	if err != nil {
		t.Fatalf("search on empty store: %v", err)
	}
	if res.TotalCount != 0 {
		t.Errorf("total = %d, want 0", res.TotalCount)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &openConfig{driver: "mongo"}
	if _, _, err := openStore(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpen_RedisRequiresAddr(t *testing.T) {
	cfg := &openConfig{driver: "redis"}
	if _, _, err := openStore(context.Background(), cfg); err == nil {
		t.Fatal("expected error when no redis address provided")
	}
}

func TestOpenOptions(t *testing.T) {
	cfg := &openConfig{}

	WithRedis("localhost:6379", "secret")(cfg)
	if cfg.driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg.driver)
	}
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.addrs)
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q", cfg.password)
	}

	WithMemory()(cfg)
	if cfg.driver != "memory" {
		t.Errorf("driver = %q, want memory", cfg.driver)
	}

	WithKeyPrefix("app:")(cfg)
	if cfg.keyPrefix != "app:" {
		t.Errorf("prefix = %q, want app:", cfg.keyPrefix)
	}

	opts := DefaultOptions()
	opts.DefaultLimit = 5
	WithOptions(opts)(cfg)
	if cfg.opts.DefaultLimit != 5 {
		t.Errorf("limit = %d, want 5", cfg.opts.DefaultLimit)
	}
}

func TestSearchBuilder(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())

	res, err := e.NewSearch().
		Type(TypeUsers).
		Where("role", "athlete").
		Limit(1).
		Do(context.Background())
	if err != nil {
		t.Fatalf("builder search: %v", err)
	}
	if res.TotalCount != 2 || len(res.Items) != 1 {
		t.Errorf("total=%d page=%d, want 2/1", res.TotalCount, len(res.Items))
	}
	if res.Items[0].User.Role != "athlete" {
		t.Errorf("role = %q, want athlete", res.Items[0].User.Role)
	}
}
