package filings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/domain/query"
	"github.com/mmcdole/gofeed"
)

var ErrFeed = errors.New("malformed filing feed")

const accessionTag = "accession-number="

// Entry is one filing listed in an EDGAR browse feed.
type Entry struct {
	Title           string     `json:"title"`
	Link            string     `json:"link"`
	Form            string     `json:"form"`
	AccessionNumber string     `json:"accession_number"`
	Updated         *time.Time `json:"updated,omitempty"`
}

type Service struct {
	client  apiclient.Client
	logger  logger.Logger
	metrics *metrics.Metrics
}

func New(client apiclient.Client, l logger.Logger, m *metrics.Metrics) *Service {
	return &Service{client: client, logger: l, metrics: m}
}

// Feed builds the query URL, fetches it and returns the Atom document as is.
func (s *Service) Feed(ctx context.Context, q *query.Query) (string, error) {
	u, err := q.Build()
	if err != nil {
		s.metrics.ObserveQuery(metrics.ResultError)
		return "", err
	}
	s.metrics.ObserveQuery(metrics.ResultHit)
	s.logger.Debug(fmt.Sprintf("Fetching filing feed %s", u))

	res, err := apiclient.GetURL(ctx, s.client, u)
	if err != nil {
		return "", err
	}
	if err := apiclient.CheckStatus(res); err != nil {
		return "", err
	}
	return res.Body, nil
}

func (s *Service) Entries(ctx context.Context, q *query.Query) ([]*Entry, error) {
	data, err := s.Feed(ctx, q)
	if err != nil {
		return nil, err
	}
	return ParseFeed(data)
}

// ParseFeed reads the entries of an EDGAR Atom feed in document order.
func ParseFeed(data string) ([]*Entry, error) {
	feed, err := gofeed.NewParser().ParseString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFeed, err)
	}

	entries := make([]*Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		e := &Entry{
			Title:           strings.TrimSpace(it.Title),
			Link:            it.Link,
			AccessionNumber: extractAccession(it.GUID),
			Updated:         it.UpdatedParsed,
		}
		if len(it.Categories) > 0 {
			e.Form = it.Categories[0]
		} else if form, _, ok := strings.Cut(e.Title, " - "); ok {
			e.Form = strings.TrimSpace(form)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// extractAccession reads the accession number from an entry id of the form
// urn:tag:sec.gov,2008:accession-number=0000320193-23-000106.
func extractAccession(id string) string {
	i := strings.Index(id, accessionTag)
	if i < 0 {
		return ""
	}
	return id[i+len(accessionTag):]
}
