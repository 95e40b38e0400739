// Package platform implements campaign fetchers for source ad platforms.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adshift/adshift/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultPathTemplate = "/campaigns/{id}"
	defaultTimeout      = 30 * time.Second
	maxBodyBytes        = 10 << 20
)

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	Platform string
	BaseURL  string
	// PathTemplate is appended to BaseURL; {id} is replaced by the escaped
	// campaign id.
	PathTemplate string
	Headers      map[string]string
	Timeout      time.Duration
	// RateLimit is requests per second; 0 means unlimited.
	RateLimit float64
	Burst     int
	// Transport allows injecting a custom HTTP transport for tests.
	Transport http.RoundTripper
}

// HTTPFetcher reads campaigns from a platform's REST API.
type HTTPFetcher struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	if cfg.PathTemplate == "" {
		cfg.PathTemplate = defaultPathTemplate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &HTTPFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// FetchCampaign GETs one campaign. 404 maps to NotFoundError; 408, 429, 5xx
// and transport failures are retryable; other statuses are permanent.
func (f *HTTPFetcher) FetchCampaign(ctx context.Context, id string) (domain.RawRecord, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, f.fetchErr(id, true, fmt.Errorf("rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url(id), nil)
	if err != nil {
		return nil, f.fetchErr(id, false, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range f.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, f.fetchErr(id, true, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &domain.NotFoundError{Platform: f.cfg.Platform, CampaignID: id}
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, f.fetchErr(id, true, statusError(resp))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, f.fetchErr(id, false, statusError(resp))
	}

	raw, err := DecodeRecord(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, f.fetchErr(id, false, err)
	}
	return raw, nil
}

func (f *HTTPFetcher) url(id string) string {
	p := strings.ReplaceAll(f.cfg.PathTemplate, "{id}", url.PathEscape(id))
	return strings.TrimSuffix(f.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(p, "/")
}

func (f *HTTPFetcher) fetchErr(id string, retryable bool, err error) error {
	return &domain.SourceFetchError{Platform: f.cfg.Platform, CampaignID: id, Retryable: retryable, Err: err}
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}

// DecodeRecord reads a single JSON object. Numbers keep their textual
// precision until converted.
func DecodeRecord(r io.Reader) (domain.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty campaign document")
		}
		return nil, fmt.Errorf("decoding campaign: %w", err)
	}
	if m == nil {
		return nil, errors.New("campaign document is null")
	}
	return domain.NewRawRecord(m)
}
