package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBytes caps how much of a response body is read.
const DefaultMaxBytes int64 = 2 << 20

// ErrStatus is wrapped by StatusError.
var ErrStatus = errors.New("unexpected status code")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch %s, status code: %d", e.URL, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Accept    string
}

type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBytes  int64
	accept    string
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		accept:    opts.Accept,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	return f
}

// Timeout returns the per-request timeout.
func (f *Fetcher) Timeout() time.Duration { return f.timeout }

// GetBytes performs a GET and returns at most MaxBytes of the body.
// The request is cancelled when the timeout expires.
func (f *Fetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := f.do(ctx, url, func(resp *http.Response) error {
		b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		body = b
		return nil
	})
	return body, err
}

// GetHTML performs a GET and returns the body decoded to UTF-8 using the
// Content-Type header and any <meta charset> in the first bytes. At most
// limit bytes of the decoded document are read; limit <= 0 means MaxBytes.
func (f *Fetcher) GetHTML(ctx context.Context, url string, limit int64) (string, error) {
	if limit <= 0 {
		limit = f.maxBytes
	}
	var html string
	err := f.do(ctx, url, func(resp *http.Response) error {
		r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
		if err != nil {
			// unknown charset label, read the bytes as they are
			r = resp.Body
		}
		b, err := io.ReadAll(io.LimitReader(r, limit))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		html = string(b)
		return nil
	})
	return html, err
}

func (f *Fetcher) do(ctx context.Context, url string, read func(*http.Response) error) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.accept != "" {
		req.Header.Set("Accept", f.accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	return read(resp)
}
