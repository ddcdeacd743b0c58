package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supply-alerts/internal/alerting"
	"supply-alerts/internal/fetcher"
	"supply-alerts/internal/supply"
)

type staticFetcher struct {
	body  string
	err   error
	calls int
}

func (f *staticFetcher) FetchTransparency(context.Context) (string, error) {
	f.calls++
	return f.body, f.err
}

type recordingNotifier struct {
	notes []alerting.Notification
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, note alerting.Notification) error {
	n.notes = append(n.notes, note)
	return n.err
}

type dispatcherSpy struct {
	notifier *recordingNotifier
	err      error
	builds   int
}

func (d *dispatcherSpy) factory() (alerting.Notifier, error) {
	d.builds++
	if d.err != nil {
		return nil, d.err
	}
	return d.notifier, nil
}

func newTestService(body string, minimum float64) (*Service, *staticFetcher, *dispatcherSpy) {
	f := &staticFetcher{body: body}
	spy := &dispatcherSpy{notifier: &recordingNotifier{}}
	cfg := RunConfig{NotificationTopic: "usdt-alerts", SupplyMinimum: minimum, ClickURL: chartURL}
	return New(cfg, f, spy.factory, zerolog.Nop()), f, spy
}

const chartURL = "https://studio.glassnode.com/charts/supply.Current?a=USDT&category=Supply"

const exampleBody = `{"data":{"usdt":{"totaltokens1":"1000000.5","totaltokensEth":500000}}}`

func TestCheckBelowThresholdSendsOneNotification(t *testing.T) {
	svc, _, spy := newTestService(exampleBody, 2_000_000)

	result, err := svc.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1500000.5, result.Supply)
	assert.Equal(t, 2_000_000.0, result.Minimum)
	assert.True(t, result.Notified)
	assert.Equal(t, 1, spy.builds)
	require.Len(t, spy.notifier.notes, 1)

	note := spy.notifier.notes[0]
	assert.Equal(t, "usdt-alerts", note.Topic)
	assert.Equal(t, "USDT supply decreased", note.Title)
	assert.Equal(t, "Current supply: 1,500,001", note.Message)
	assert.True(t, note.Markdown)
	assert.Equal(t, []string{"warning"}, note.Tags)
	assert.Equal(t, chartURL, note.Click)
}

func TestCheckThresholdIsStrict(t *testing.T) {
	body := `{"data":{"usdt":{"totaltokens":"1000000"}}}`

	cases := []struct {
		name     string
		minimum  float64
		notified bool
	}{
		{name: "equal does not trigger", minimum: 1_000_000, notified: false},
		{name: "one unit below triggers", minimum: 1_000_001, notified: true},
		{name: "above does not trigger", minimum: 999_999, notified: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, spy := newTestService(body, tc.minimum)

			result, err := svc.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.notified, result.Notified)

			if tc.notified {
				assert.Len(t, spy.notifier.notes, 1)
				return
			}
			assert.Zero(t, spy.builds, "dispatcher must not be built when not triggered")
			assert.Empty(t, spy.notifier.notes)
		})
	}
}

func TestCheckUnexpectedStatusSkipsNotification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	spy := &dispatcherSpy{notifier: &recordingNotifier{}}
	f := fetcher.NewTransparency(fetcher.TransparencyOptions{URL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	svc := New(RunConfig{NotificationTopic: "t", SupplyMinimum: 1e12}, f, spy.factory, zerolog.Nop())

	_, err := svc.Check(context.Background())

	var statusErr *fetcher.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Zero(t, spy.builds)
	assert.Empty(t, spy.notifier.notes)
}

func TestCheckNoMatchingFieldsSkipsNotification(t *testing.T) {
	svc, _, spy := newTestService(`{"data":{"usdt":{"other":"1"}}}`, 1e12)

	_, err := svc.Check(context.Background())
	require.ErrorIs(t, err, supply.ErrNoMatchingFields)
	assert.Zero(t, spy.builds)
}

func TestCheckPropagatesStageErrors(t *testing.T) {
	transport := &fetcher.TransportError{Err: errors.New("dial tcp: no such host")}

	cases := []struct {
		name  string
		body  string
		fetch error
		check func(t *testing.T, err error)
	}{
		{
			name:  "transport",
			fetch: transport,
			check: func(t *testing.T, err error) {
				assert.Same(t, transport, err)
			},
		},
		{
			name: "malformed",
			body: `{"data":{}}`,
			check: func(t *testing.T, err error) {
				var malformed *fetcher.MalformedPayloadError
				assert.ErrorAs(t, err, &malformed)
			},
		},
		{
			name: "invalid field",
			body: `{"data":{"usdt":{"totaltokensX":"abc"}}}`,
			check: func(t *testing.T, err error) {
				var fieldErr *supply.FieldError
				require.ErrorAs(t, err, &fieldErr)
				assert.Equal(t, "totaltokensX", fieldErr.Key)
				var invalid *supply.InvalidNumericStringError
				assert.ErrorAs(t, err, &invalid)
			},
		},
		{
			name: "unsupported type",
			body: `{"data":{"usdt":{"totaltokens":[1]}}}`,
			check: func(t *testing.T, err error) {
				var unsupported *supply.UnsupportedValueTypeError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, "array", unsupported.TypeName)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &staticFetcher{body: tc.body, err: tc.fetch}
			spy := &dispatcherSpy{notifier: &recordingNotifier{}}
			svc := New(RunConfig{NotificationTopic: "t", SupplyMinimum: 1e12}, f, spy.factory, zerolog.Nop())

			_, err := svc.Check(context.Background())
			require.Error(t, err)
			tc.check(t, err)
			assert.Zero(t, spy.builds)
			assert.Equal(t, 1, f.calls)
		})
	}
}

func TestNotifyBuildFailure(t *testing.T) {
	svc, _, spy := newTestService(exampleBody, 2_000_000)
	spy.err = errors.New("bad base url")

	_, err := svc.Check(context.Background())

	var buildErr *alerting.BuildDispatcherError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "failed to build ntfy dispatcher: bad base url", err.Error())
	assert.Empty(t, spy.notifier.notes)
}

func TestNotifyBuildFailureKeepsTypedError(t *testing.T) {
	svc, _, spy := newTestService(exampleBody, 2_000_000)
	original := &alerting.BuildDispatcherError{Err: errors.New("missing host")}
	spy.err = original

	_, err := svc.Check(context.Background())
	assert.Same(t, original, err)
}

func TestNotifySendFailure(t *testing.T) {
	svc, _, spy := newTestService(exampleBody, 2_000_000)
	spy.notifier.err = errors.New("connection reset")

	_, err := svc.Check(context.Background())

	var sendErr *alerting.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "failed to send notification: connection reset", err.Error())
	assert.Len(t, spy.notifier.notes, 1, "send is attempted exactly once")
}

func TestNotifyWithoutDispatcher(t *testing.T) {
	svc := New(RunConfig{SupplyMinimum: 10}, &staticFetcher{}, nil, zerolog.Nop())

	notified, err := svc.NotifyIfBelowThreshold(context.Background(), 5)
	assert.False(t, notified)
	var buildErr *alerting.BuildDispatcherError
	assert.ErrorAs(t, err, &buildErr)

	notified, err = svc.NotifyIfBelowThreshold(context.Background(), 10)
	assert.False(t, notified)
	assert.NoError(t, err)
}

func TestCheckEndToEndWithNtfy(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(exampleBody))
	}))
	defer feed.Close()

	var posts int
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	f := fetcher.NewTransparency(fetcher.TransparencyOptions{URL: feed.URL, Timeout: time.Second}, zerolog.Nop())
	factory := func() (alerting.Notifier, error) {
		return alerting.NewNtfyNotifier(gateway.URL, time.Second, zerolog.Nop())
	}
	svc := New(RunConfig{NotificationTopic: "usdt", SupplyMinimum: 2_000_000}, f, factory, zerolog.Nop())

	result, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Notified)
	assert.Equal(t, 1, posts)
}

func TestBuildNotificationCustomClick(t *testing.T) {
	note := BuildNotification(RunConfig{NotificationTopic: "t", ClickURL: "https://example.com/chart"}, 123456789)
	assert.Equal(t, "https://example.com/chart", note.Click)
	assert.Equal(t, "Current supply: 123,456,789", note.Message)
}

func TestBuildNotificationWithoutClick(t *testing.T) {
	note := BuildNotification(RunConfig{NotificationTopic: "t"}, 1)
	assert.Empty(t, note.Click)
}
