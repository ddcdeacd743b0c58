package fetcher

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTransparencyURL = "https://app.tether.to/transparency.json"

// TransparencyOptions parameterise the transparency fetcher.
type TransparencyOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Transparency fetches Tether's published transparency feed.
type Transparency struct {
	opts   TransparencyOptions
	logger zerolog.Logger
	client *http.Client
	url    string
}

// NewTransparency constructs a transparency fetcher.
func NewTransparency(opts TransparencyOptions, logger zerolog.Logger) *Transparency {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	endpoint := strings.TrimSpace(opts.URL)
	if endpoint == "" {
		endpoint = defaultTransparencyURL
	}

	return &Transparency{
		opts:   opts,
		logger: logger.With().Str("component", "transparency_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
		url:    endpoint,
	}
}

// FetchTransparency performs one GET against the feed and returns the body text.
// Every call is a fresh round trip; nothing is cached or retried.
func (t *Transparency) FetchTransparency(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if ua := strings.TrimSpace(t.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	started := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	t.logger.Debug().
		Str("url", t.url).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(started)).
		Msg("transparency feed fetched")

	return string(body), nil
}

var _ TransparencyFetcher = (*Transparency)(nil)
