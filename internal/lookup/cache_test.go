package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"rideshare_backend/internal/autocomplete"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedSourceServesRepeatLookupsFromRedis(t *testing.T) {
	mr, rdb := newTestRedis(t)
	src := &stubSource{results: []autocomplete.Candidate{remoteKiev}}
	cached := NewCachedSource("addresses", src, rdb, time.Hour, nil)

	for i := 0; i < 3; i++ {
		got, err := cached.Lookup(context.Background(), "Kiev ", autocomplete.Scope{ScopeCountry: "md"})
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if len(got) != 1 || got[0].ID != "W4410" {
			t.Fatalf("lookup %d: unexpected candidates %+v", i, got)
		}
	}
	if lookups, _ := src.calls(); lookups != 1 {
		t.Fatalf("expected one upstream call, got %d", lookups)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one cache entry, got %v", mr.Keys())
	}

	mr.FastForward(2 * time.Hour)
	if _, err := cached.Lookup(context.Background(), "kiev", autocomplete.Scope{ScopeCountry: "MD"}); err != nil {
		t.Fatalf("lookup after expiry: %v", err)
	}
	if lookups, _ := src.calls(); lookups != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", lookups)
	}
}

func TestCachedSourceKeysByScope(t *testing.T) {
	_, rdb := newTestRedis(t)
	src := &stubSource{results: []autocomplete.Candidate{remoteKiev}}
	cached := NewCachedSource("vehicle-models", src, rdb, time.Hour, nil)

	_, _ = cached.Lookup(context.Background(), "cor", autocomplete.Scope{ScopeMake: "Toyota"})
	_, _ = cached.Lookup(context.Background(), "cor", autocomplete.Scope{ScopeMake: "Dacia"})
	if lookups, _ := src.calls(); lookups != 2 {
		t.Fatalf("expected distinct scopes to miss separately, got %d calls", lookups)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	mr, rdb := newTestRedis(t)
	src := &stubSource{err: errors.New("upstream down")}
	cached := NewCachedSource("addresses", src, rdb, time.Hour, nil)

	if _, err := cached.Lookup(context.Background(), "kiev", nil); err == nil {
		t.Fatal("expected upstream error")
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected no cache entry for a failure, got %v", mr.Keys())
	}
}

func TestCachedSourceBypassesUnreachableRedis(t *testing.T) {
	mr, rdb := newTestRedis(t)
	src := &stubSource{results: []autocomplete.Candidate{remoteKiev}}
	cached := NewCachedSource("addresses", src, rdb, time.Hour, nil)
	mr.Close()

	got, err := cached.Lookup(context.Background(), "kiev", nil)
	if err != nil {
		t.Fatalf("expected redis outage to be bypassed, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

func TestCachedSourceCachesDetails(t *testing.T) {
	_, rdb := newTestRedis(t)
	src := &stubSource{details: autocomplete.Fields{"zipCode": "MD-2068"}}
	cached := NewCachedSource("addresses", src, rdb, time.Hour, nil)

	for i := 0; i < 2; i++ {
		fields, err := cached.ResolveDetails(context.Background(), "W4410")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if fields["zipCode"] != "MD-2068" {
			t.Fatalf("unexpected fields %+v", fields)
		}
	}
	if _, resolves := src.calls(); resolves != 1 {
		t.Fatalf("expected one upstream resolve, got %d", resolves)
	}
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) Lookup(ctx context.Context, _ string, _ autocomplete.Scope) ([]autocomplete.Candidate, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return []autocomplete.Candidate{remoteKiev}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingSource) ResolveDetails(context.Context, string) (autocomplete.Fields, error) {
	return nil, errors.New("not used")
}

func TestCachedSourceCancelledCallerDoesNotFailOthers(t *testing.T) {
	_, rdb := newTestRedis(t)
	src := &blockingSource{started: make(chan struct{}, 2), release: make(chan struct{})}
	cached := NewCachedSource("addresses", src, rdb, time.Hour, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cached.Lookup(ctxA, "kiev", nil)
		errA <- err
	}()
	<-src.started

	type result struct {
		got []autocomplete.Candidate
		err error
	}
	resB := make(chan result, 1)
	go func() {
		got, err := cached.Lookup(context.Background(), "kiev", nil)
		resB <- result{got, err}
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to stop with context.Canceled, got %v", err)
	}

	close(src.release)
	res := <-resB
	if res.err != nil {
		t.Fatalf("live caller failed: %v", res.err)
	}
	if len(res.got) != 1 || res.got[0].ID != "W4410" {
		t.Fatalf("unexpected candidates %+v", res.got)
	}
}
