package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/database"
	"github.com/finneas-io/edgar/adapter/logger/console"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/domain/company"
	"github.com/finneas-io/edgar/service/directory"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const doc = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	"1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
	"2": {"cik_str": 1045810, "ticker": "NVDA", "title": "NVIDIA CORP"}
}`

type fakeClient struct {
	calls int
	mu    sync.Mutex
}

func (c *fakeClient) Get(ctx context.Context, host, path string) (*apiclient.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &apiclient.Response{StatusLine: "HTTP/1.1 200 OK", StatusCode: 200, Body: doc}, nil
}

type fakeDB struct {
	mu      sync.Mutex
	stored  map[string]*company.Company
	runs    []*database.SyncRun
	failing string
}

func (db *fakeDB) Close() error            { return nil }
func (db *fakeDB) CreateBaseTables() error { return nil }

func (db *fakeDB) InsertCompany(cmp *company.Company) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if cmp.Ticker == db.failing {
		return errors.New("connection reset")
	}
	db.stored[cmp.Ticker] = cmp
	return nil
}

func (db *fakeDB) GetCompany(ticker string) (*company.Company, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cmp, ok := db.stored[ticker]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cmp, nil
}

func (db *fakeDB) GetCompanies() ([]*company.Company, error) {
	return nil, nil
}

func (db *fakeDB) InsertSyncRun(run *database.SyncRun) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.runs = append(db.runs, run)
	return nil
}

func TestRun(t *testing.T) {
	client := &fakeClient{}
	db := &fakeDB{stored: map[string]*company.Company{}, failing: "NVDA"}
	m := metrics.New()
	s := New(directory.New(client, console.Nop()), db, console.Nop(), WithWorkers(3), WithMetrics(m))

	report, err := s.Run(context.Background(), []string{"msft", "AAPL", "ZZZZ", " ", "NVDA", "QQQQ"})
	if err != nil {
		t.Fatal(err)
	}

	if client.calls != 1 {
		t.Errorf("Got %d directory fetches, want 1", client.calls)
	}
	if len(report.Resolved) != 2 || report.Resolved[0].Ticker != "AAPL" || report.Resolved[1].Ticker != "MSFT" {
		t.Errorf("Got resolved %+v", report.Resolved)
	}
	if len(report.Missing) != 2 || report.Missing[0] != "QQQQ" || report.Missing[1] != "ZZZZ" {
		t.Errorf("Got missing %v", report.Missing)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "NVDA" {
		t.Errorf("Got failed %v", report.Failed)
	}

	if _, err := db.GetCompany("MSFT"); err != nil {
		t.Errorf("MSFT was not stored: %v", err)
	}
	if len(db.runs) != 1 || db.runs[0].Id != report.Id || db.runs[0].Resolved != 2 || db.runs[0].Missing != 2 || db.runs[0].Failed != 1 {
		t.Errorf("Got sync runs %+v", db.runs)
	}

	if got := testutil.ToFloat64(m.SyncedTotal.WithLabelValues(metrics.ResultMiss)); got != 2 {
		t.Errorf("Got %v misses recorded, want 2", got)
	}
}

func TestRunEmpty(t *testing.T) {
	db := &fakeDB{stored: map[string]*company.Company{}}
	s := New(directory.New(&fakeClient{}, console.Nop()), db, console.Nop())

	report, err := s.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Resolved) != 0 || len(report.Missing) != 0 || len(report.Failed) != 0 {
		t.Errorf("Got %+v", report)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := &fakeDB{stored: map[string]*company.Company{}}
	s := New(directory.New(&fakeClient{}, console.Nop()), db, console.Nop())

	_, err := s.Run(ctx, []string{"AAPL"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Got %v, want context.Canceled", err)
	}
	if len(db.runs) != 0 {
		t.Errorf("Canceled run must not be recorded")
	}
}
