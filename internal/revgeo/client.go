// Package revgeo wraps the external reverse-geocoding service used only
// by the correction guards. Exactly one attempt per guard; a failed
// re-geocode leaves the original value untouched.
package revgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/maxparsons123/happy-ride-helper-sub002/app/models"
)

// ErrReattemptFailed means a guard's re-geocode call failed; the guard
// becomes a no-op.
var ErrReattemptFailed = errors.New("re-geocode attempt failed")

type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(rawURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url:     rawURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type wireHit struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// Lookup resolves a free-text address or postcode to its best match.
func (c *Client) Lookup(ctx context.Context, query string) (*models.GeocodeHit, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.url + "?q=" + url.QueryEscape(query) + "&limit=1&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReattemptFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReattemptFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrReattemptFailed, resp.StatusCode)
	}

	var hits []wireHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReattemptFailed, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: no match for %q", ErrReattemptFailed, query)
	}

	c.logger.Debug("reverse geocode hit",
		zap.String("query", query),
		zap.String("display_name", hits[0].DisplayName))
	return &models.GeocodeHit{
		DisplayName: hits[0].DisplayName,
		Latitude:    hits[0].Latitude,
		Longitude:   hits[0].Longitude,
	}, nil
}
