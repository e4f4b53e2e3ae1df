package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"time"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/metrics"
)

// httpClient is the net/http backed alternative to the raw socket client.
// It reaches hosts over https unless told otherwise.
type httpClient struct {
	client    *http.Client
	scheme    string
	userAgent string
	accept    string
	metrics   *metrics.Metrics
}

type Option func(*httpClient)

func WithScheme(scheme string) Option {
	return func(c *httpClient) {
		c.scheme = scheme
	}
}

func WithAccept(accept string) Option {
	return func(c *httpClient) {
		c.accept = accept
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.client.Timeout = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *httpClient) {
		c.metrics = m
	}
}

func New(userAgent string, opts ...Option) *httpClient {
	c := &httpClient{
		client:    &http.Client{},
		scheme:    "https",
		userAgent: userAgent,
		accept:    "*/*",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Get(ctx context.Context, host, path string) (*apiclient.Response, error) {
	start := time.Now()
	addr := fmt.Sprintf("%s://%s", c.scheme, host)

	// build request
	req, err := http.NewRequestWithContext(ctx, "GET", addr+path, nil)
	if err != nil {
		return nil, &apiclient.ConnError{Op: "request", Addr: addr, Err: err}
	}
	req.Header.Add("User-Agent", c.userAgent)
	req.Header.Add("Accept", c.accept)
	req.Close = true

	res, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveExchange(host, outcome(ctx), start, 0)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("get %s: %w", addr, ctx.Err())
		}
		return nil, &apiclient.ConnError{Op: "get", Addr: addr, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		c.metrics.ObserveExchange(host, outcome(ctx), start, 0)
		return nil, &apiclient.ConnError{Op: "read", Addr: addr, Err: err}
	}
	if len(data) < 1 {
		c.metrics.ObserveExchange(host, metrics.OutcomeEmptyBody, start, 0)
		return nil, apiclient.ErrEmptyBody
	}

	c.metrics.ObserveExchange(host, metrics.OutcomeOK, start, len(data))
	return &apiclient.Response{
		StatusLine: fmt.Sprintf("%s %s", res.Proto, res.Status),
		StatusCode: res.StatusCode,
		Header:     textproto.MIMEHeader(res.Header),
		Body:       string(data),
	}, nil
}

func outcome(ctx context.Context) string {
	if ctx.Err() != nil {
		return metrics.OutcomeCanceled
	}
	return metrics.OutcomeConn
}
