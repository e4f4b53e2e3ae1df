package httpserv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/domain/company"
	"github.com/finneas-io/edgar/domain/filing"
	"github.com/finneas-io/edgar/domain/query"
	"github.com/finneas-io/edgar/service/directory"
	"github.com/finneas-io/edgar/service/filings"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// statusClientClosed is answered when the request context is canceled,
// usually because the caller went away.
const statusClientClosed = 499

type Resolver interface {
	Resolve(ctx context.Context, ticker string) (*company.Company, error)
}

type Feeds interface {
	Feed(ctx context.Context, q *query.Query) (string, error)
	Entries(ctx context.Context, q *query.Query) ([]*filings.Entry, error)
}

type httpServer struct {
	router   *http.ServeMux
	port     int
	resolver Resolver
	feeds    Feeds
	logger   logger.Logger
}

func New(port int, res Resolver, feeds Feeds, m *metrics.Metrics, l logger.Logger) *httpServer {
	s := &httpServer{port: port, resolver: res, feeds: feeds, logger: l}
	router := http.NewServeMux()
	router.HandleFunc("/company/{ticker}", s.handleCompany)
	router.HandleFunc("/filings/{ticker}", s.handleFilings)
	if m != nil {
		router.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}
	s.router = router
	return s
}

func (s *httpServer) Handler() http.Handler {
	return s.router
}

// Listen serves until ctx is done and then shuts down gracefully.
func (s *httpServer) Listen(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.logger.Log(fmt.Sprintf("Listening on port %d", s.port))

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

type companyResponse struct {
	Cik       uint32 `json:"cik"`
	PaddedCik string `json:"padded_cik"`
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
}

func (s *httpServer) handleCompany(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != "GET" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	cmp, err := s.resolver.Resolve(r.Context(), r.PathValue("ticker"))
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.writeJSON(w, &companyResponse{
		Cik:       cmp.Cik,
		PaddedCik: cmp.PaddedCik(),
		Ticker:    cmp.Ticker,
		Title:     cmp.Title,
	})
}

func (s *httpServer) handleFilings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != "GET" {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()

	cmp, err := s.resolver.Resolve(r.Context(), r.PathValue("ticker"))
	if err != nil {
		s.handleError(w, err)
		return
	}

	q := query.New(cmp).
		DateBefore(params.Get("dateb")).
		SearchText(params.Get("search_text"))
	if v := params.Get("type"); len(v) > 0 {
		t, err := filing.ParseType(v)
		if err != nil {
			s.handleError(w, err)
			return
		}
		q.Type(t)
	}
	if v := params.Get("owner"); len(v) > 0 {
		o, err := filing.ParseOwner(v)
		if err != nil {
			s.handleError(w, err)
			return
		}
		q.Owner(o)
	}
	if v := params.Get("count"); len(v) > 0 {
		q.Count(v)
	}

	if params.Get("format") == "atom" {
		feed, err := s.feeds.Feed(r.Context(), q)
		if err != nil {
			s.handleError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, feed)
		return
	}

	entries, err := s.feeds.Entries(r.Context(), q)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, entries)
}

func (s *httpServer) writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

func (s *httpServer) handleError(w http.ResponseWriter, err error) {
	var statusErr *apiclient.StatusError
	var connErr *apiclient.ConnError

	switch {
	case errors.Is(err, directory.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, query.ErrInvalidDateFormat),
		errors.Is(err, query.ErrURLParse),
		errors.Is(err, filing.ErrUnknownFilingType),
		errors.Is(err, filing.ErrUnknownOwner):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &statusErr),
		errors.As(err, &connErr),
		errors.Is(err, apiclient.ErrEmptyOrMissingBody),
		errors.Is(err, directory.ErrJSON),
		errors.Is(err, filings.ErrFeed):
		s.logger.Error("Upstream failure", err)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Gateway Timeout", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		s.logger.Debug(fmt.Sprintf("Request canceled: %s", err))
		http.Error(w, "Client Closed Request", statusClientClosed)
	default:
		s.logger.Error("Request failed", err)
		http.Error(w, "Internal Server", http.StatusInternalServerError)
	}
}
