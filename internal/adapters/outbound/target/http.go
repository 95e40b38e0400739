// Package target implements campaign submitters for target ad platforms.
package target

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adshift/adshift/internal/domain"
)

const defaultTimeout = 30 * time.Second

// HTTPConfig configures an HTTPSubmitter.
type HTTPConfig struct {
	Platform  string
	URL       string
	Headers   map[string]string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// HTTPSubmitter creates campaigns by POSTing the canonical record as JSON.
type HTTPSubmitter struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPSubmitter(cfg HTTPConfig) *HTTPSubmitter {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &HTTPSubmitter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
	}
}

// CreateCampaign returns the id assigned by the target. Failures after the
// request was fully written are reported as partial, since the target may
// have created the campaign.
func (s *HTTPSubmitter) CreateCampaign(ctx context.Context, record domain.CanonicalRecord) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", s.fail(false, fmt.Errorf("encoding record: %w", err))
	}

	var wrote atomic.Bool
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				wrote.Store(true)
			}
		},
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", s.fail(false, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", s.fail(wrote.Load(), fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", s.fail(false, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	id, err := decodeID(resp.Body)
	if err != nil {
		// the target answered 2xx, so the campaign exists
		return "", s.fail(true, err)
	}
	return id, nil
}

func (s *HTTPSubmitter) fail(partial bool, err error) error {
	return &domain.SubmissionError{Platform: s.cfg.Platform, Partial: partial, Err: err}
}

func decodeID(r io.Reader) (string, error) {
	var out struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(out.ID) == 0 || string(out.ID) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(out.ID, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(out.ID, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", errors.New("response id is neither a string nor a number")
}
