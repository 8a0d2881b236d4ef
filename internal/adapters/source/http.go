package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

// HTTPSource fetches CSV files over HTTP. Files are served under
// <baseURL>/<name>; an optional index URL returns the JSON file listing.
type HTTPSource struct {
	client   *http.Client
	baseURL  string
	indexURL string
	maxSize  int64
	logger   *zap.Logger

	newBackOff func() backoff.BackOff
}

// NewHTTPSource creates a new HTTP file source
func NewHTTPSource(client *http.Client, baseURL, indexURL string, maxSize int64, logger *zap.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	s := &HTTPSource{
		client:   client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		indexURL: indexURL,
		maxSize:  maxSize,
		logger:   logger,
	}
	return s.WithRetries(defaultHTTPRetries)
}

const defaultHTTPRetries = 2

// WithRetries sets how many times a failed request is retried. Only network
// errors and 5xx responses are retried.
func (s *HTTPSource) WithRetries(n int) *HTTPSource {
	if n < 0 {
		n = 0
	}
	s.newBackOff = func() backoff.BackOff {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 200 * time.Millisecond
		eb.MaxInterval = 2 * time.Second
		return backoff.WithMaxRetries(eb, uint64(n))
	}
	return s
}

type httpListing struct {
	Files []struct {
		Name     string    `json:"name"`
		Size     int64     `json:"size"`
		Modified time.Time `json:"modified"`
	} `json:"files"`
}

// List retrieves the file listing from the index URL
func (s *HTTPSource) List(ctx context.Context) ([]core.FileInfo, error) {
	if s.indexURL == "" {
		return nil, fmt.Errorf("no index URL configured for HTTP source")
	}
	resp, err := s.get(ctx, s.indexURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var listing httpListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode file listing: %w", err)
	}

	files := make([]core.FileInfo, 0, len(listing.Files))
	for _, f := range listing.Files {
		if !isCSV(f.Name) {
			continue
		}
		files = append(files, core.FileInfo{Name: f.Name, Size: f.Size, Modified: f.Modified})
	}
	sortNewestFirst(files)
	return files, nil
}

// Fetch downloads a file
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.get(ctx, s.baseURL+"/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	s.logger.Debug("Fetched file over HTTP", zap.String("file", name), zap.Int64("content_length", resp.ContentLength))
	return readLimited(resp.Body, name, s.maxSize)
}

func (s *HTTPSource) get(ctx context.Context, target string) (*http.Response, error) {
	var resp *http.Response
	attempt := 0
	op := func() error {
		attempt++
		r, err := s.getOnce(ctx, target)
		if err != nil {
			s.logger.Debug("HTTP request failed", zap.String("url", target), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// errServer marks 5xx responses, which are retried
var errServer = errors.New("server error")

func (s *HTTPSource) getOnce(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to fetch %s: %w", target, err))
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, backoff.Permanent(fmt.Errorf("%s: %w", target, ErrNotFound))
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d: %w", target, resp.StatusCode, errServer)
	default:
		resp.Body.Close()
		return nil, backoff.Permanent(fmt.Errorf("failed to fetch %s: unexpected status %d", target, resp.StatusCode))
	}
}
