package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/studiowebux/stampede/internal/types"
)

const (
	// HTTP client configuration timeouts
	TCPDialTimeout        = 5 * time.Second
	TCPKeepAliveInterval  = 30 * time.Second
	TLSHandshakeTimeout   = 5 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second
)

// Options configures the shared HTTP client.
type Options struct {
	Host           string // base URL, e.g. http://localhost:3000
	RequestTimeout time.Duration
	MaxConns       int // sized to the expected number of concurrent users
	TLS            *types.TLSConfig
}

// Client issues requests against the target host using a shared
// connection-pooled http.Client. It is safe for concurrent use; per-user
// state (token, created content) lives in the caller's session, not here.
type Client struct {
	host           string
	httpClient     *http.Client
	requestTimeout time.Duration
}

// Request describes one task-issued HTTP call.
type Request struct {
	Method   string
	Path     string // concrete path with query, e.g. /api/content/42
	Endpoint string // templated label for reporting, e.g. GET /api/content/{id}
	Body     any    // JSON-marshaled when non-nil
	Token    string // attached as Authorization: Bearer <token> when non-empty
	Timeout  time.Duration // per-request override; 0 uses the client default
	Allow    []int  // allowed status codes; empty means {200}
}

// New creates a Client with connection pooling, timeouts, and resource
// limits tuned for sustained load generation.
func New(opts Options) (*Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = 10
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		// Connection pool settings to prevent resource exhaustion
		MaxIdleConns:        opts.MaxConns,
		MaxIdleConnsPerHost: opts.MaxConns,
		MaxConnsPerHost:     opts.MaxConns * 2,
		IdleConnTimeout:     IdleConnTimeout,
		DisableKeepAlives:   false,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}

	if opts.TLS != nil {
		tlsCfg := &tls.Config{
			InsecureSkipVerify: opts.TLS.InsecureSkipVerify,
		}

		// Load client certificate if provided (for mTLS)
		if opts.TLS.CertFile != "" && opts.TLS.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(opts.TLS.CertFile, opts.TLS.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}

		// Load CA certificate if provided (for server verification)
		if opts.TLS.CAFile != "" {
			caCert, err := os.ReadFile(opts.TLS.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse CA certificate")
			}
			tlsCfg.RootCAs = caCertPool
		}

		transport.TLSClientConfig = tlsCfg
	}

	// Timeouts are enforced per request so a task's explicit override
	// (e.g. the 30s streaming allowance) is not capped by a client-wide
	// deadline.
	return &Client{
		host:           strings.TrimRight(opts.Host, "/"),
		httpClient:     &http.Client{Transport: transport},
		requestTimeout: opts.RequestTimeout,
	}, nil
}

// Host returns the configured base URL.
func (c *Client) Host() string {
	return c.host
}

// Do executes one request and classifies the outcome against the allow-list.
// Network errors and disallowed status codes become failed results with a
// descriptive message; they are never returned as Go errors because a failed
// request must not break the caller's loop.
func (c *Client) Do(ctx context.Context, req Request) *types.RequestResult {
	result := &types.RequestResult{
		Endpoint:  req.Endpoint,
		Timestamp: time.Now(),
	}
	if result.Endpoint == "" {
		result.Endpoint = req.Method + " " + req.Path
	}

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			result.Failed = true
			result.Message = fmt.Sprintf("%s failed: encode body: %v", result.Endpoint, err)
			return result
		}
		bodyReader = bytes.NewReader(payload)
		result.RequestSize = int64(len(payload))
	}

	// Per-request timeout, optionally overridden by the task
	// (e.g. streaming calls allow 30s)
	timeout := c.requestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.host+req.Path, bodyReader)
	if err != nil {
		result.Failed = true
		result.Message = fmt.Sprintf("%s failed: create request: %v", result.Endpoint, err)
		return result
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	result.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		// Connection failure or timeout; status 0 marks a network error
		result.Failed = true
		result.Message = fmt.Sprintf("%s failed: %v", result.Endpoint, err)
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Failed = true
		result.Message = fmt.Sprintf("%s failed: read response body: %v", result.Endpoint, err)
		return result
	}
	result.Body = string(bodyBytes)
	result.ResponseSize = int64(len(bodyBytes))

	if !statusAllowed(resp.StatusCode, req.Allow) {
		result.Failed = true
		result.Message = fmt.Sprintf("%s failed: %d", result.Endpoint, resp.StatusCode)
	}

	return result
}

// statusAllowed reports whether code is in the allow-list.
// An empty allow-list means only 200 is accepted.
func statusAllowed(code int, allow []int) bool {
	if len(allow) == 0 {
		return code == http.StatusOK
	}
	for _, a := range allow {
		if code == a {
			return true
		}
	}
	return false
}
