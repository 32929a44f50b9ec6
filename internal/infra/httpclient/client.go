package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	// Backoff is multiplied by the attempt number. Defaults to one second.
	Backoff time.Duration
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper
}

// New returns an *http.Client whose transport retries transport errors and
// 5xx answers. It is handed to the genai SDK so every model call shares
// the same retry policy.
func New(opts Options) *http.Client {
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewTransport(opts),
	}
}

func NewTransport(opts Options) http.RoundTripper {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &retryTransport{
		base:       base,
		maxRetries: opts.MaxRetries,
		backoff:    backoff,
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	getBody, err := rewindable(req)
	if err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * t.backoff):
			}
		}

		attemptReq := req.Clone(ctx)
		if getBody != nil {
			body, err := getBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := t.base.RoundTrip(attemptReq)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 && attempt < t.maxRetries {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d, body: %s", resp.StatusCode, string(body))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// rewindable makes sure the request body can be replayed on retry.
func rewindable(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}
