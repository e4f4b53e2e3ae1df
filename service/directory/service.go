package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/cache"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/domain/company"
)

const (
	DefaultHost = "www.sec.gov"
	DefaultPath = "/files/company_tickers.json"
	cacheKey    = "company_tickers.json"
)

var ErrNotFound = errors.New("ticker not found")

// Store holds companies resolved by earlier runs.
type Store interface {
	GetCompany(ticker string) (*company.Company, error)
}

type Option func(*Service)

// WithCache reuses stored snapshots until they expire.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFallback answers Resolve from the store when the directory cannot be
// loaded.
func WithFallback(st Store) Option {
	return func(s *Service) {
		s.fallback = st
	}
}

func WithEndpoint(host, path string) Option {
	return func(s *Service) {
		s.host = host
		s.path = path
	}
}

type Service struct {
	client   apiclient.Client
	logger   logger.Logger
	cache    *cache.Cache
	metrics  *metrics.Metrics
	fallback Store
	host     string
	path     string
}

func New(client apiclient.Client, l logger.Logger, opts ...Option) *Service {
	s := &Service{client: client, logger: l, host: DefaultHost, path: DefaultPath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns a directory snapshot, from the cache when one is configured
// and fresh, otherwise fetched from the SEC.
func (s *Service) Load(ctx context.Context) (*Directory, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(cacheKey)
		if err == nil {
			dir, err := Parse(snap.Body)
			if err == nil {
				s.logger.Debug(fmt.Sprintf("Using directory snapshot %s", snap.Id))
				return dir, nil
			}
			s.logger.Error("Dropping unreadable directory snapshot", err)
			if err := s.cache.Invalidate(cacheKey); err != nil {
				s.logger.Error("Could not invalidate directory snapshot", err)
			}
		} else if errors.Is(err, cache.ErrMiss) {
			s.logger.Debug(fmt.Sprintf("Directory cache miss: %s", err))
		} else {
			s.logger.Error("Directory cache error", err)
		}
	}

	res, err := s.client.Get(ctx, s.host, s.path)
	if err != nil {
		return nil, err
	}
	if err := apiclient.CheckStatus(res); err != nil {
		return nil, err
	}

	dir, err := Parse([]byte(res.Body))
	if err != nil {
		return nil, err
	}
	s.logger.Log(fmt.Sprintf("Fetched ticker directory with %d companies", dir.Len()))

	if s.cache != nil {
		if _, err := s.cache.Put(cacheKey, []byte(res.Body)); err != nil {
			s.logger.Error("Could not store directory snapshot", err)
		}
	}
	return dir, nil
}

// Resolve loads the directory and looks up a single ticker.
func (s *Service) Resolve(ctx context.Context, ticker string) (*company.Company, error) {
	dir, err := s.Load(ctx)
	if err != nil {
		if cmp, ok := s.fromFallback(ctx, ticker, err); ok {
			s.metrics.ObserveLookup(metrics.ResultHit)
			return cmp, nil
		}
		s.metrics.ObserveLookup(metrics.ResultError)
		return nil, err
	}
	return s.Lookup(dir, ticker)
}

func (s *Service) fromFallback(ctx context.Context, ticker string, loadErr error) (*company.Company, bool) {
	if s.fallback == nil || ctx.Err() != nil {
		return nil, false
	}
	cmp, err := s.fallback.GetCompany(strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		s.logger.Debug(fmt.Sprintf("No stored company for %s: %s", ticker, err))
		return nil, false
	}
	s.logger.Error(fmt.Sprintf("Resolved %s from store", ticker), loadErr)
	return cmp, true
}

// Lookup resolves against an already loaded snapshot.
func (s *Service) Lookup(dir *Directory, ticker string) (*company.Company, error) {
	cmp, ok := dir.Lookup(ticker)
	if !ok {
		s.metrics.ObserveLookup(metrics.ResultMiss)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	s.metrics.ObserveLookup(metrics.ResultHit)
	return cmp, nil
}
