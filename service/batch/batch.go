package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finneas-io/edgar/adapter/database"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/adapter/queue"
	"github.com/finneas-io/edgar/adapter/queue/buffer"
	"github.com/finneas-io/edgar/domain/company"
	"github.com/finneas-io/edgar/service/directory"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// Report lists what one run did with each requested ticker.
type Report struct {
	Id       uuid.UUID          `json:"id"`
	Resolved []*company.Company `json:"resolved"`
	Missing  []string           `json:"missing"`
	Failed   []string           `json:"failed"`
}

type Option func(*Service)

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithQueue(newQueue func() queue.Queue) Option {
	return func(s *Service) {
		s.newQueue = newQueue
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

type Service struct {
	dir      *directory.Service
	db       database.Database
	logger   logger.Logger
	metrics  *metrics.Metrics
	workers  int
	newQueue func() queue.Queue
}

func New(dir *directory.Service, db database.Database, l logger.Logger, opts ...Option) *Service {
	s := &Service{
		dir:      dir,
		db:       db,
		logger:   l,
		workers:  DefaultWorkers,
		newQueue: func() queue.Queue { return buffer.New() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run resolves all tickers against one directory snapshot and stores the
// hits. Unknown tickers and failed inserts are reported, not returned as
// errors; only a failed directory load or a done context aborts the run.
func (s *Service) Run(ctx context.Context, tickers []string) (*Report, error) {
	started := time.Now()
	report := &Report{Id: uuid.New(), Resolved: []*company.Company{}, Missing: []string{}, Failed: []string{}}
	log := s.logger.With("run", report.Id.String())

	dir, err := s.dir.Load(ctx)
	if err != nil {
		return nil, err
	}

	q := s.newQueue()
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if len(t) < 1 {
			continue
		}
		if err := q.SendMessage([]byte(t)); err != nil {
			return nil, err
		}
	}
	q.Close()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				msg, err := q.RecvMessage()
				if errors.Is(err, queue.ErrDrained) {
					return nil
				}
				if err != nil {
					return err
				}
				ticker := string(msg)

				cmp, err := s.dir.Lookup(dir, ticker)
				if err != nil {
					log.Debug(fmt.Sprintf("Ticker %s not in directory", ticker))
					s.metrics.ObserveSync(metrics.ResultMiss)
					mu.Lock()
					report.Missing = append(report.Missing, ticker)
					mu.Unlock()
					continue
				}

				if err := s.db.InsertCompany(cmp); err != nil {
					log.Error(fmt.Sprintf("Could not store %s", ticker), err)
					s.metrics.ObserveSync(metrics.ResultError)
					mu.Lock()
					report.Failed = append(report.Failed, ticker)
					mu.Unlock()
					continue
				}

				s.metrics.ObserveSync(metrics.ResultHit)
				mu.Lock()
				report.Resolved = append(report.Resolved, cmp)
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Resolved, func(i, j int) bool {
		return report.Resolved[i].Ticker < report.Resolved[j].Ticker
	})
	sort.Strings(report.Missing)
	sort.Strings(report.Failed)

	err = s.db.InsertSyncRun(&database.SyncRun{
		Id:         report.Id,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Resolved:   len(report.Resolved),
		Missing:    len(report.Missing),
		Failed:     len(report.Failed),
	})
	if err != nil {
		log.Error("Could not store sync run", err)
	}

	log.Log(fmt.Sprintf(
		"Sync finished: %d resolved, %d missing, %d failed",
		len(report.Resolved),
		len(report.Missing),
		len(report.Failed),
	))
	return report, nil
}
