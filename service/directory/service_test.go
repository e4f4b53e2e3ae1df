package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/bucket/folder"
	"github.com/finneas-io/edgar/adapter/cache"
	"github.com/finneas-io/edgar/adapter/database"
	"github.com/finneas-io/edgar/adapter/logger/console"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/domain/company"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeClient struct {
	res   *apiclient.Response
	err   error
	calls int
	host  string
	path  string
}

func (c *fakeClient) Get(ctx context.Context, host, path string) (*apiclient.Response, error) {
	c.calls++
	c.host = host
	c.path = path
	return c.res, c.err
}

func ok(body string) *apiclient.Response {
	return &apiclient.Response{StatusLine: "HTTP/1.1 200 OK", StatusCode: 200, Body: body}
}

func TestResolve(t *testing.T) {
	client := &fakeClient{res: ok(indexDoc)}
	m := metrics.New()
	s := New(client, console.Nop(), WithMetrics(m))

	for _, ticker := range []string{"aapl", "AAPL"} {
		cmp, err := s.Resolve(context.Background(), ticker)
		if err != nil {
			t.Fatal(err)
		}
		if cmp.Cik != 320193 || cmp.PaddedCik() != "0000320193" {
			t.Errorf("Got %+v", cmp)
		}
	}
	if client.host != "www.sec.gov" || client.path != "/files/company_tickers.json" {
		t.Errorf("Got endpoint %s%s", client.host, client.path)
	}

	_, err := s.Resolve(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Got %v, want ErrNotFound", err)
	}

	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues(metrics.ResultHit)); got != 2 {
		t.Errorf("Got %v hits, want 2", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues(metrics.ResultMiss)); got != 1 {
		t.Errorf("Got %v misses, want 1", got)
	}
}

func TestResolveFailures(t *testing.T) {
	connErr := &apiclient.ConnError{Op: "dial", Addr: "www.sec.gov:80", Err: errors.New("refused")}

	tests := []struct {
		name   string
		client *fakeClient
		check  func(error) bool
	}{
		{
			"Connection failure",
			&fakeClient{err: connErr},
			func(err error) bool { return errors.Is(err, connErr) },
		},
		{
			"Missing body",
			&fakeClient{err: apiclient.ErrNoBody},
			func(err error) bool { return errors.Is(err, apiclient.ErrEmptyOrMissingBody) },
		},
		{
			"Forbidden",
			&fakeClient{res: &apiclient.Response{StatusLine: "HTTP/1.1 403 Forbidden", StatusCode: 403, Body: "denied"}},
			func(err error) bool {
				var statusErr *apiclient.StatusError
				return errors.As(err, &statusErr) && statusErr.Code == 403
			},
		},
		{
			"Malformed document",
			&fakeClient{res: ok("<html>")},
			func(err error) bool { return errors.Is(err, ErrJSON) },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.client, console.Nop()).Resolve(context.Background(), "AAPL")
			if err == nil || !test.check(err) {
				t.Errorf("Unexpected error %v", err)
			}
			if errors.Is(err, ErrNotFound) {
				t.Errorf("Failure must not be reported as not found")
			}
		})
	}
}

func TestLoadCache(t *testing.T) {
	f, err := folder.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{res: ok(listDoc)}
	c := cache.New(f, time.Hour)
	s := New(client, console.Nop(), WithCache(c), WithEndpoint("localhost:8080", "/tickers.json"))

	for i := 0; i < 3; i++ {
		dir, err := s.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if dir.Len() != 2 {
			t.Errorf("Got %d companies, want 2", dir.Len())
		}
	}
	if client.calls != 1 {
		t.Errorf("Got %d fetches, want 1", client.calls)
	}
	if client.host != "localhost:8080" || client.path != "/tickers.json" {
		t.Errorf("Got endpoint %s%s", client.host, client.path)
	}

	if err := c.Invalidate("company_tickers.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if client.calls != 2 {
		t.Errorf("Got %d fetches after invalidation, want 2", client.calls)
	}
}

func TestLoadCacheUnreadableSnapshot(t *testing.T) {
	f, err := folder.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := cache.New(f, 0)
	if _, err := c.Put("company_tickers.json", []byte("garbage")); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{res: ok(listDoc)}
	dir, err := New(client, console.Nop(), WithCache(c)).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if dir.Len() != 2 || client.calls != 1 {
		t.Errorf("Got %d companies and %d fetches", dir.Len(), client.calls)
	}
}

func TestLoadCacheCorruptEnvelope(t *testing.T) {
	f, err := folder.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.PutObject("company_tickers.json", []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	c := cache.New(f, 0)

	client := &fakeClient{res: ok(listDoc)}
	if _, err := New(client, console.Nop(), WithCache(c)).Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if client.calls != 1 {
		t.Errorf("Got %d fetches, want 1", client.calls)
	}
	snap, err := c.Get("company_tickers.json")
	if err != nil {
		t.Fatalf("Fresh snapshot not stored: %v", err)
	}
	if string(snap.Body) != listDoc {
		t.Errorf("Got snapshot body %q", snap.Body)
	}
}

type fakeStore struct {
	companies map[string]*company.Company
	asked     string
}

func (st *fakeStore) GetCompany(ticker string) (*company.Company, error) {
	st.asked = ticker
	cmp, ok := st.companies[ticker]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cmp, nil
}

func TestResolveFallback(t *testing.T) {
	connErr := &apiclient.ConnError{Op: "dial", Addr: "www.sec.gov:80", Err: errors.New("refused")}
	st := &fakeStore{companies: map[string]*company.Company{
		"AAPL": {Cik: 320193, Ticker: "AAPL", Title: "Apple Inc."},
	}}
	m := metrics.New()
	s := New(&fakeClient{err: connErr}, console.Nop(), WithFallback(st), WithMetrics(m))

	cmp, err := s.Resolve(context.Background(), " aapl ")
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Cik != 320193 || st.asked != "AAPL" {
		t.Errorf("Got %+v for %q", cmp, st.asked)
	}

	if _, err := s.Resolve(context.Background(), "ZZZZ"); !errors.Is(err, connErr) {
		t.Errorf("Got %v, want the load error", err)
	}

	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues(metrics.ResultHit)); got != 1 {
		t.Errorf("Got %v hits, want 1", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues(metrics.ResultError)); got != 1 {
		t.Errorf("Got %v errors, want 1", got)
	}
}

func TestResolveFallbackSkippedWhenLoaded(t *testing.T) {
	st := &fakeStore{companies: map[string]*company.Company{
		"ZZZZ": {Cik: 1, Ticker: "ZZZZ", Title: "Stale"},
	}}
	s := New(&fakeClient{res: ok(listDoc)}, console.Nop(), WithFallback(st))

	if _, err := s.Resolve(context.Background(), "ZZZZ"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Got %v, want ErrNotFound", err)
	}
	if len(st.asked) > 0 {
		t.Errorf("Store must not be asked when the directory loaded")
	}
}
