package rawclient

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// serve answers a single connection with response and sends the received
// request head on the returned channel.
func serve(t *testing.T, response string) (string, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	reqs := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reqs <- readHead(conn)
		io.WriteString(conn, response)
	}()

	return ln.Addr().String(), reqs
}

// silent accepts a connection and never answers.
func silent(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		ln.Close()
	})

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-done
	}()

	return ln.Addr().String()
}

func readHead(conn net.Conn) string {
	r := bufio.NewReader(conn)
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		b.WriteString(line)
		if err != nil || line == "\r\n" {
			return b.String()
		}
	}
}

func TestGetRequestFraming(t *testing.T) {
	addr, reqs := serve(t, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n{\"ok\":true}")

	c := New("example.com info@example.com")
	res, err := c.Get(context.Background(), addr, "/files/company_tickers.json")
	if err != nil {
		t.Fatal(err)
	}

	want := "GET /files/company_tickers.json HTTP/1.1\r\n" +
		"Host: " + addr + "\r\n" +
		"User-Agent: example.com info@example.com\r\n" +
		"Connection: close\r\n" +
		"Accept: */*\r\n" +
		"\r\n"
	if got := <-reqs; got != want {
		t.Errorf("Got request %q, want %q", got, want)
	}

	if res.Body != "{\"ok\":true}" {
		t.Errorf("Got body %q", res.Body)
	}
	if res.StatusCode != 200 || res.StatusLine != "HTTP/1.1 200 OK" {
		t.Errorf("Got status %d %q", res.StatusCode, res.StatusLine)
	}
	if res.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Got content type %q", res.Header.Get("Content-Type"))
	}
}

func TestGetAccept(t *testing.T) {
	addr, reqs := serve(t, "HTTP/1.1 200 OK\r\n\r\n<feed/>")

	c := New("ua", WithAccept("application/atom+xml"))
	if _, err := c.Get(context.Background(), addr, "/"); err != nil {
		t.Fatal(err)
	}
	if got := <-reqs; !strings.Contains(got, "\r\nAccept: application/atom+xml\r\n") {
		t.Errorf("Accept header missing in %q", got)
	}
}

func TestGetBodyFraming(t *testing.T) {
	tests := []struct {
		name     string
		response string
		body     string
		err      error
	}{
		{"Body after first delimiter", "HTTP/1.1 200 OK\r\n\r\nhello", "hello", nil},
		{"Delimiter inside body is kept", "HTTP/1.1 200 OK\r\n\r\na\r\n\r\nb", "a\r\n\r\nb", nil},
		{"Head only", "HTTP/1.1 200 OK\r\nX: y\r\n", "", apiclient.ErrNoBody},
		{"Empty body", "HTTP/1.1 200 OK\r\n\r\n", "", apiclient.ErrEmptyBody},
		{"Nothing at all", "", "", apiclient.ErrNoBody},
		{"Chunked", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n", "hello world", nil},
		{"Chunked empty", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n0\r\n\r\n", "", apiclient.ErrEmptyBody},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			addr, _ := serve(t, test.response)
			body, err := New("ua").Body(context.Background(), addr, "/")
			if test.err != nil {
				if !errors.Is(err, test.err) {
					t.Fatalf("Got error %v, want %v", err, test.err)
				}
				if !errors.Is(err, apiclient.ErrEmptyOrMissingBody) {
					t.Errorf("Error must match ErrEmptyOrMissingBody")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if body != test.body {
				t.Errorf("Got body %q, want %q", body, test.body)
			}
		})
	}
}

func TestGetIgnoresStatus(t *testing.T) {
	addr, _ := serve(t, "HTTP/1.1 404 Not Found\r\n\r\nmissing")

	res, err := New("ua").Get(context.Background(), addr, "/nope")
	if err != nil {
		t.Fatalf("Non 2xx must not fail the exchange, got %v", err)
	}
	if res.StatusCode != 404 || res.Body != "missing" {
		t.Errorf("Got %d %q", res.StatusCode, res.Body)
	}

	var statusErr *apiclient.StatusError
	if err := apiclient.CheckStatus(res); !errors.As(err, &statusErr) || statusErr.Code != 404 {
		t.Errorf("CheckStatus got %v, want StatusError 404", err)
	}
}

func TestGetDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	m := metrics.New()
	_, err = New("ua", WithMetrics(m)).Get(context.Background(), addr, "/")

	var connErr *apiclient.ConnError
	if !errors.As(err, &connErr) {
		t.Fatalf("Got %v, want ConnError", err)
	}
	if connErr.Op != "dial" || connErr.Addr != addr {
		t.Errorf("Got op %q addr %q", connErr.Op, connErr.Addr)
	}
	if got := testutil.ToFloat64(m.ExchangesTotal.WithLabelValues(addr, metrics.OutcomeConn)); got != 1 {
		t.Errorf("Got %v conn errors recorded, want 1", got)
	}
}

func TestGetContextDeadline(t *testing.T) {
	addr := silent(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New("ua").Get(ctx, addr, "/")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Got %v, want context.DeadlineExceeded", err)
	}
	var connErr *apiclient.ConnError
	if errors.As(err, &connErr) {
		t.Errorf("Context expiry must not be reported as ConnError")
	}
}

func TestGetContextCanceled(t *testing.T) {
	addr := silent(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := New("ua").Get(ctx, addr, "/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Got %v, want context.Canceled", err)
	}
}

func TestGetTimeout(t *testing.T) {
	addr := silent(t)

	_, err := New("ua", WithTimeout(50*time.Millisecond)).Get(context.Background(), addr, "/")
	var connErr *apiclient.ConnError
	if !errors.As(err, &connErr) {
		t.Fatalf("Got %v, want ConnError", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("Got %v, want it to wrap os.ErrDeadlineExceeded", err)
	}
}

func TestAddress(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.sec.gov", "www.sec.gov:80"},
		{"www.sec.gov:8080", "www.sec.gov:8080"},
		{"127.0.0.1", "127.0.0.1:80"},
		{"[::1]", "[::1]:80"},
		{"[::1]:9000", "[::1]:9000"},
	}
	for _, test := range tests {
		t.Run(test.host, func(t *testing.T) {
			if got := address(test.host); got != test.want {
				t.Errorf("Got %q, want %q", got, test.want)
			}
		})
	}
}
