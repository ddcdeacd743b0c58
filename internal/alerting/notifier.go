package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const userAgent = "usdtwatcher/1.0"

// Notification is one push message addressed to an ntfy topic.
type Notification struct {
	Topic    string
	Title    string
	Message  string
	Markdown bool
	Tags     []string
	Click    string
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, note Notification) error
}

// BuildDispatcherError reports a notifier that could not be constructed.
type BuildDispatcherError struct {
	Err error
}

func (e *BuildDispatcherError) Error() string {
	return fmt.Sprintf("failed to build ntfy dispatcher: %v", e.Err)
}

func (e *BuildDispatcherError) Unwrap() error { return e.Err }

// SendError reports a notification that was not accepted by the gateway.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send notification: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// NtfyNotifier publishes JSON messages to an ntfy server.
type NtfyNotifier struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewNtfyNotifier builds an ntfy dispatcher for baseURL.
func NewNtfyNotifier(baseURL string, timeout time.Duration, logger zerolog.Logger) (*NtfyNotifier, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, &BuildDispatcherError{Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &BuildDispatcherError{Err: fmt.Errorf("unsupported scheme %q in %q", parsed.Scheme, baseURL)}
	}
	if parsed.Host == "" {
		return nil, &BuildDispatcherError{Err: fmt.Errorf("missing host in %q", baseURL)}
	}

	return &NtfyNotifier{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "alert_ntfy").Logger(),
	}, nil
}

type ntfyMessage struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title,omitempty"`
	Message  string   `json:"message"`
	Markdown bool     `json:"markdown,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Click    string   `json:"click,omitempty"`
}

// Notify publishes the notification with ntfy's JSON publishing API.
func (n *NtfyNotifier) Notify(ctx context.Context, note Notification) error {
	if strings.TrimSpace(note.Topic) == "" {
		return &SendError{Err: errors.New("topic is empty")}
	}

	body, err := json.Marshal(ntfyMessage{
		Topic:    note.Topic,
		Title:    note.Title,
		Message:  note.Message,
		Markdown: note.Markdown,
		Tags:     note.Tags,
		Click:    note.Click,
	})
	if err != nil {
		return &SendError{Err: fmt.Errorf("marshal ntfy payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewReader(body))
	if err != nil {
		return &SendError{Err: fmt.Errorf("create ntfy request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return &SendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &SendError{Err: parseHTTPError(resp.StatusCode, snippet)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	n.logger.Info().
		Str("topic", note.Topic).
		Str("title", note.Title).
		Msg("notification sent (ntfy)")
	return nil
}

type ntfyErrorResponse struct {
	Code  int    `json:"code"`
	HTTP  int    `json:"http"`
	Error string `json:"error"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr ntfyErrorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("ntfy returned %d: %s", status, apiErr.Error)
	}
	if text := strings.TrimSpace(string(payload)); text != "" {
		return fmt.Errorf("ntfy returned %d: %s", status, text)
	}
	return fmt.Errorf("ntfy returned %d", status)
}

// LogNotifier records notifications in the log instead of sending them.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a notifier for dry runs.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_dry_run").Logger()}
}

// Notify logs the notification fields.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Warn().
		Str("topic", note.Topic).
		Str("title", note.Title).
		Str("message", note.Message).
		Strs("tags", note.Tags).
		Str("click", note.Click).
		Msg("dry run: notification not sent")
	return nil
}

var (
	_ Notifier = (*NtfyNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
