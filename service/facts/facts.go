package facts

import (
	"context"
	"errors"
	"fmt"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/domain/company"
	"github.com/tidwall/gjson"
)

const (
	DefaultHost     = "data.sec.gov"
	DefaultTaxonomy = "us-gaap"
)

var ErrJSON = errors.New("malformed JSON document")

// Document is a fetched JSON payload kept opaque; Get reads single values
// by gjson path.
type Document struct {
	raw []byte
}

func NewDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrJSON
	}
	return &Document{raw: data}, nil
}

func (d *Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

func (d *Document) Bytes() []byte {
	return d.raw
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return d.raw, nil
}

type Option func(*Service)

func WithHost(host string) Option {
	return func(s *Service) {
		s.host = host
	}
}

func WithTaxonomy(taxonomy string) Option {
	return func(s *Service) {
		s.taxonomy = taxonomy
	}
}

type Service struct {
	client   apiclient.Client
	logger   logger.Logger
	host     string
	taxonomy string
}

func New(client apiclient.Client, l logger.Logger, opts ...Option) *Service {
	s := &Service{client: client, logger: l, host: DefaultHost, taxonomy: DefaultTaxonomy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompanyFacts fetches every XBRL fact reported by the company.
func (s *Service) CompanyFacts(ctx context.Context, cmp *company.Company) (*Document, error) {
	return s.fetch(ctx, fmt.Sprintf("/api/xbrl/companyfacts/CIK%s.json", cmp.PaddedCik()))
}

// Submissions fetches the filing history and company metadata.
func (s *Service) Submissions(ctx context.Context, cmp *company.Company) (*Document, error) {
	return s.fetch(ctx, fmt.Sprintf("/submissions/CIK%s.json", cmp.PaddedCik()))
}

// Frames fetches one fact across all reporting entities for a calendar
// period, e.g. Frames(ctx, "AccountsPayableCurrent", "USD", Period{2019, 1, true}).
func (s *Service) Frames(ctx context.Context, tag, unit string, p Period) (*Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.fetch(ctx, fmt.Sprintf("/api/xbrl/frames/%s/%s/%s/%s.json", s.taxonomy, tag, unit, p))
}

func (s *Service) fetch(ctx context.Context, path string) (*Document, error) {
	s.logger.Debug(fmt.Sprintf("Fetching %s%s", s.host, path))

	res, err := s.client.Get(ctx, s.host, path)
	if err != nil {
		return nil, err
	}
	if err := apiclient.CheckStatus(res); err != nil {
		return nil, err
	}

	doc, err := NewDocument([]byte(res.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s%s", err, s.host, path)
	}
	return doc, nil
}
