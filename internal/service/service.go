package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"supply-alerts/internal/alerting"
	"supply-alerts/internal/fetcher"
	"supply-alerts/internal/supply"
)

const (
	alertTitle = "USDT supply decreased"
	alertTag   = "warning"
)

// RunConfig carries the operator inputs of a check. An empty ClickURL sends
// the notification without a click action.
type RunConfig struct {
	NotificationTopic string
	SupplyMinimum     float64
	ClickURL          string
}

// DispatcherFactory builds the notifier on demand so nothing is constructed
// unless the threshold is breached.
type DispatcherFactory func() (alerting.Notifier, error)

// CheckResult summarises a completed check.
type CheckResult struct {
	Supply   float64
	Minimum  float64
	Notified bool
}

// Service runs the fetch, parse, aggregate and notify stages in order.
type Service struct {
	fetcher    fetcher.TransparencyFetcher
	dispatcher DispatcherFactory
	cfg        RunConfig
	logger     zerolog.Logger
}

// New constructs the supply check service.
func New(cfg RunConfig, f fetcher.TransparencyFetcher, dispatcher DispatcherFactory, logger zerolog.Logger) *Service {
	return &Service{
		fetcher:    f,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With().Str("component", "service").Logger(),
	}
}

// Check runs the whole pipeline once. The first failing stage aborts the run
// and its error is returned unchanged.
func (s *Service) Check(ctx context.Context) (CheckResult, error) {
	total, err := s.CurrentSupply(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	s.logger.Info().
		Float64("supply", total).
		Str("supply_formatted", supply.Format(total)).
		Float64("minimum", s.cfg.SupplyMinimum).
		Msg("supply aggregated")

	notified, err := s.NotifyIfBelowThreshold(ctx, total)
	if err != nil {
		return CheckResult{}, err
	}

	return CheckResult{Supply: total, Minimum: s.cfg.SupplyMinimum, Notified: notified}, nil
}

// CurrentSupply fetches and aggregates the feed without alerting.
func (s *Service) CurrentSupply(ctx context.Context) (float64, error) {
	_, total, err := s.SupplyBreakdown(ctx)
	return total, err
}

// SupplyBreakdown fetches the feed and returns each qualifying field with the total.
func (s *Service) SupplyBreakdown(ctx context.Context) ([]supply.Contribution, float64, error) {
	if s.fetcher == nil {
		return nil, 0, errors.New("transparency fetcher not configured")
	}

	body, err := s.fetcher.FetchTransparency(ctx)
	if err != nil {
		return nil, 0, err
	}

	payload, err := fetcher.ParsePayload(body)
	if err != nil {
		return nil, 0, err
	}

	return supply.Breakdown(payload.Data.USDT)
}

// NotifyIfBelowThreshold sends one notification when total is strictly below
// the configured minimum. It reports whether a notification was dispatched.
func (s *Service) NotifyIfBelowThreshold(ctx context.Context, total float64) (bool, error) {
	if !(total < s.cfg.SupplyMinimum) {
		s.logger.Debug().Float64("supply", total).Float64("minimum", s.cfg.SupplyMinimum).Msg("supply at or above minimum")
		return false, nil
	}

	if s.dispatcher == nil {
		return false, &alerting.BuildDispatcherError{Err: errors.New("no dispatcher configured")}
	}

	notifier, err := s.dispatcher()
	if err != nil {
		var buildErr *alerting.BuildDispatcherError
		if errors.As(err, &buildErr) {
			return false, err
		}
		return false, &alerting.BuildDispatcherError{Err: err}
	}

	note := BuildNotification(s.cfg, total)
	s.logger.Info().Str("topic", note.Topic).Str("message", note.Message).Msg("supply below minimum, sending notification")

	if err := notifier.Notify(ctx, note); err != nil {
		var sendErr *alerting.SendError
		if errors.As(err, &sendErr) {
			return false, err
		}
		return false, &alerting.SendError{Err: err}
	}

	return true, nil
}

// BuildNotification renders the shortfall alert for total.
func BuildNotification(cfg RunConfig, total float64) alerting.Notification {
	return alerting.Notification{
		Topic:    cfg.NotificationTopic,
		Title:    alertTitle,
		Message:  fmt.Sprintf("Current supply: %s", supply.Format(total)),
		Markdown: true,
		Tags:     []string{alertTag},
		Click:    cfg.ClickURL,
	}
}
