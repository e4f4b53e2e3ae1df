package rawclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/adapter/logger/console"
	"github.com/finneas-io/edgar/adapter/metrics"
)

const (
	DefaultAccept  = "*/*"
	DefaultTimeout = 30 * time.Second
	defaultPort    = "80"
)

type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

type Option func(*rawClient)

// WithAccept sets the media type sent in the Accept header.
func WithAccept(accept string) Option {
	return func(c *rawClient) {
		c.accept = accept
	}
}

// WithTimeout bounds every exchange; zero leaves only the context deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *rawClient) {
		c.timeout = d
	}
}

func WithDialer(d Dialer) Option {
	return func(c *rawClient) {
		c.dialer = d
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *rawClient) {
		c.log = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *rawClient) {
		c.metrics = m
	}
}

// rawClient speaks HTTP/1.1 directly over a fresh TCP connection per call.
// It holds no mutable state and is safe for concurrent use.
type rawClient struct {
	userAgent string
	accept    string
	timeout   time.Duration
	dialer    Dialer
	log       logger.Logger
	metrics   *metrics.Metrics
}

func New(userAgent string, opts ...Option) *rawClient {
	c := &rawClient{
		userAgent: userAgent,
		accept:    DefaultAccept,
		timeout:   DefaultTimeout,
		dialer:    &net.Dialer{},
		log:       console.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends one GET request for path to host and returns the response
// whatever its status code.
func (c *rawClient) Get(ctx context.Context, host, path string) (*apiclient.Response, error) {
	start := time.Now()
	addr := address(host)

	c.log.Debug(fmt.Sprintf("GET %s%s", host, path))

	raw, err := c.exchange(ctx, host, addr, path)
	if err != nil {
		c.observe(host, err, start, 0)
		return nil, err
	}

	head, body, ok := strings.Cut(string(raw), "\r\n\r\n")
	if !ok {
		c.observe(host, apiclient.ErrNoBody, start, len(raw))
		return nil, apiclient.ErrNoBody
	}

	statusLine, code, header := apiclient.ParseHead(head)

	if isChunked(header.Get("Transfer-Encoding")) && len(body) > 0 {
		decoded, err := io.ReadAll(httputil.NewChunkedReader(strings.NewReader(body)))
		if err != nil {
			err = &apiclient.ConnError{Op: "read", Addr: addr, Err: fmt.Errorf("decode chunked body: %w", err)}
			c.observe(host, err, start, len(raw))
			return nil, err
		}
		body = string(decoded)
	}

	if len(body) < 1 {
		c.observe(host, apiclient.ErrEmptyBody, start, len(raw))
		return nil, apiclient.ErrEmptyBody
	}

	c.observe(host, nil, start, len(raw))
	return &apiclient.Response{
		StatusLine: statusLine,
		StatusCode: code,
		Header:     header,
		Body:       body,
	}, nil
}

// Body returns only the body text of the exchange.
func (c *rawClient) Body(ctx context.Context, host, path string) (string, error) {
	res, err := c.Get(ctx, host, path)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

func (c *rawClient) exchange(ctx context.Context, host, addr, path string) ([]byte, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, wrap(ctx, "dial", addr, err)
	}
	defer conn.Close()

	if deadline, ok := c.deadline(ctx); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, wrap(ctx, "dial", addr, err)
		}
	}
	// unblock pending reads and writes once the context is done
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := io.WriteString(conn, c.request(host, path)); err != nil {
		return nil, wrap(ctx, "write", addr, err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, wrap(ctx, "read", addr, err)
	}
	return raw, nil
}

func (c *rawClient) request(host, path string) string {
	return fmt.Sprintf(
		"GET %s HTTP/1.1\r\nHost: %s\r\nUser-Agent: %s\r\nConnection: close\r\nAccept: %s\r\n\r\n",
		path,
		host,
		c.userAgent,
		c.accept,
	)
}

// deadline is the sooner of the context deadline and the configured timeout.
func (c *rawClient) deadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if c.timeout > 0 {
		t := time.Now().Add(c.timeout)
		if !ok || t.Before(deadline) {
			return t, true
		}
	}
	return deadline, ok
}

func (c *rawClient) observe(host string, err error, start time.Time, size int) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, apiclient.ErrNoBody):
		outcome = metrics.OutcomeNoBody
	case errors.Is(err, apiclient.ErrEmptyBody):
		outcome = metrics.OutcomeEmptyBody
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeCanceled
	default:
		outcome = metrics.OutcomeConn
	}
	if err != nil {
		c.log.With("host", host).Error("Exchange failed", err)
	}
	c.metrics.ObserveExchange(host, outcome, start, size)
}

// wrap reports a done context as the context error and anything else as a
// connection failure.
func wrap(ctx context.Context, op, addr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", op, addr, ctxErr)
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return fmt.Errorf("%s %s: %w", op, addr, context.DeadlineExceeded)
	}
	return &apiclient.ConnError{Op: op, Addr: addr, Err: err}
}

// address appends the default port unless host already carries one.
func address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), defaultPort)
}

func isChunked(te string) bool {
	for _, v := range strings.Split(te, ",") {
		if strings.EqualFold(strings.TrimSpace(v), "chunked") {
			return true
		}
	}
	return false
}
