// Package fxrate is the HTTP client for the external exchange-rate provider.
package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// pairResponse is the provider's answer for GET /{key}/pair/{base}/{target}.
type pairResponse struct {
	Result         string           `json:"result"`
	ErrorType      string           `json:"error-type"`
	ConversionRate *decimal.Decimal `json:"conversion_rate"`
}

// Client implements ports.RateProvider.
type Client struct {
	rootURL    string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a provider client. A nil httpClient gets a default one
// bounded by cfg.Timeout.
func NewClient(cfg config.FXConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		rootURL:    strings.TrimRight(cfg.RootURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		log:        log,
	}
}

// Fetch returns the live rate for base -> target.
// Transport failures wrap ports.ErrRateUnavailable; any answer without a
// usable positive rate wraps ports.ErrRateNotFound.
func (c *Client) Fetch(ctx context.Context, base, target string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/%s/pair/%s/%s",
		c.rootURL, url.PathEscape(c.apiKey), url.PathEscape(base), url.PathEscape(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The error carries the URL, which embeds the API key.
		c.log.Warn().Str("base", base).Str("target", target).Msg("fx provider request failed")
		return decimal.Zero, fmt.Errorf("fetch rate %s/%s: %w", base, target, ports.ErrRateUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.log.Warn().
			Str("base", base).
			Str("target", target).
			Int("status", resp.StatusCode).
			Msg("fx provider returned non-200")
		return decimal.Zero, fmt.Errorf("fetch rate %s/%s: status %d: %w", base, target, resp.StatusCode, ports.ErrRateNotFound)
	}

	var body pairResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate %s/%s: %v: %w", base, target, err, ports.ErrRateNotFound)
	}
	if body.Result == "error" {
		return decimal.Zero, fmt.Errorf("fetch rate %s/%s: provider error %q: %w", base, target, body.ErrorType, ports.ErrRateNotFound)
	}
	if body.ConversionRate == nil || !body.ConversionRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("fetch rate %s/%s: missing or non-positive conversion_rate: %w", base, target, ports.ErrRateNotFound)
	}

	return *body.ConversionRate, nil
}
