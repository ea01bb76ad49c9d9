// Package oracle adapts the external natural-language geocoding
// capability behind a strict, schema-validated boundary.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrUnavailable covers network failure, rate limiting and 5xx answers.
// It propagates to the caller verbatim; the pipeline never guesses an
// address when the oracle is down.
var ErrUnavailable = errors.New("geocoding oracle unavailable")

// ErrMalformed covers schema-validation failure. The pipeline falls
// back per the configured fail policy instead of aborting.
var ErrMalformed = errors.New("geocoding oracle response malformed")

// Client is the HTTP adapter. One retry on parse failure only; an
// unavailable oracle is not retried.
type Client struct {
	url      string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	validate *validator.Validate
	logger   *zap.Logger
}

func NewClient(url, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url:      url,
		apiKey:   apiKey,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
		logger:   logger,
	}
}

// Resolve sends the structured request and returns a schema-validated
// response. Error taxonomy: ErrUnavailable or ErrMalformed, nothing else.
func (c *Client) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	resp, err := c.once(ctx, req)
	if err == nil || errors.Is(err, ErrUnavailable) {
		return resp, err
	}

	// One re-attempt on a malformed answer; oracles occasionally emit
	// truncated JSON under load.
	c.logger.Warn("oracle response malformed, retrying once", zap.Error(err))
	resp, err2 := c.once(ctx, req)
	if err2 != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) once(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, httpResp.StatusCode)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrMalformed, httpResp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Decode parses and schema-validates one raw oracle payload. Unknown
// fields are rejected: a shifted upstream schema must fail loudly, not
// silently drop data. Exposed so tests and replay tooling share the
// exact production validation path.
func (c *Client) Decode(raw []byte) (*ResolveResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var resp ResolveResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &resp, nil
}
