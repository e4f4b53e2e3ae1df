package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
)

// Client performs a single GET exchange against host and returns the
// response whatever its status.
type Client interface {
	Get(ctx context.Context, host, path string) (*Response, error)
}

type Response struct {
	StatusLine string
	StatusCode int
	Header     textproto.MIMEHeader
	Body       string
}

var (
	ErrEmptyOrMissingBody = errors.New("empty or missing body")
	ErrNoBody             = fmt.Errorf("%w: no body found", ErrEmptyOrMissingBody)
	ErrEmptyBody          = fmt.Errorf("%w: empty body", ErrEmptyOrMissingBody)
)

// ConnError wraps a failure to dial, write to or read from the peer.
type ConnError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Addr, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// StatusError is returned by CheckStatus for non 2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Got status '%s'", e.Status)
}

func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// CheckStatus is used by callers that only accept successful responses.
func CheckStatus(r *Response) error {
	if r.Success() {
		return nil
	}
	return &StatusError{Code: r.StatusCode, Status: r.StatusLine}
}

// GetURL runs an exchange for the host and request URI of u.
func GetURL(ctx context.Context, c Client, u *url.URL) (*Response, error) {
	return c.Get(ctx, u.Host, u.RequestURI())
}

// ParseHead reads the status line and header fields of a raw header block.
// Malformed lines are skipped; a missing status code is reported as 0.
func ParseHead(head string) (string, int, textproto.MIMEHeader) {
	lines := strings.Split(head, "\r\n")
	statusLine := lines[0]

	code := 0
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) >= 2 && strings.HasPrefix(parts[0], "HTTP/") {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			code = v
		}
	}

	header := make(textproto.MIMEHeader)
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok || len(key) < 1 {
			continue
		}
		header.Add(textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(key)), strings.TrimSpace(value))
	}

	return statusLine, code, header
}
