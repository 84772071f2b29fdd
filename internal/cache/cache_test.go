package cache

import (
	"context"
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := NewMemoryConn()
	c := New(conn, 0)

	type payload struct {
		Name string            `json:"name"`
		Tags []string          `json:"tags"`
		Raw  []byte            `json:"raw"`
		Meta map[string]string `json:"meta"`
	}
	in := payload{
		Name: "sample",
		Tags: []string{"a", "b"},
		Raw:  []byte{0x00, 0xff, 0x10},
		Meta: map[string]string{"k": "v"},
	}

	if !c.Set(ctx, "k1", in, 0) {
		t.Fatalf("Set failed")
	}

	var out payload
	if !c.Get(ctx, "k1", &out) {
		t.Fatalf("Get missed")
	}
	if out.Name != in.Name || len(out.Tags) != 2 || string(out.Raw) != string(in.Raw) || out.Meta["k"] != "v" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	ctx := context.Background()
	conn := NewMemoryConn()
	c := New(conn, 0)

	if !c.Set(ctx, "k1", "v", 0) {
		t.Fatalf("Set failed")
	}
	ttl, ok := conn.TTL("k1")
	if !ok {
		t.Fatalf("entry missing")
	}
	if ttl > DefaultTTL || ttl < DefaultTTL-time.Second {
		t.Fatalf("expected default TTL, got %v", ttl)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	conn := NewMemoryConn()
	base := time.Now()
	now := base
	conn.SetClock(func() time.Time { return now })
	c := New(conn, 0)

	if !c.Set(ctx, "k1", "v", time.Second) {
		t.Fatalf("Set failed")
	}
	now = base.Add(2 * time.Second)

	var out string
	if c.Get(ctx, "k1", &out) {
		t.Fatalf("expected miss after expiry")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryConn(), 0)

	c.Set(ctx, "k1", 42, 0)
	if !c.Delete(ctx, "k1") {
		t.Fatalf("Delete failed")
	}
	var out int
	if c.Get(ctx, "k1", &out) {
		t.Fatalf("expected miss after delete")
	}
}

func TestFailSoftOnOutage(t *testing.T) {
	ctx := context.Background()
	conn := NewMemoryConn()
	conn.Down = true
	c := New(conn, 0)

	if c.Set(ctx, "k1", "v", 0) {
		t.Fatalf("Set should degrade to no-op")
	}
	var out string
	if c.Get(ctx, "k1", &out) {
		t.Fatalf("Get should degrade to miss")
	}
	if c.Delete(ctx, "k1") {
		t.Fatalf("Delete should degrade to no-op")
	}
	if c.Ping(ctx) {
		t.Fatalf("Ping should report down")
	}
}

func TestNilConn(t *testing.T) {
	ctx := context.Background()
	c := New(nil, 0)
	if c.Set(ctx, "k", "v", 0) || c.Ping(ctx) {
		t.Fatalf("nil conn must fail soft")
	}
}
