package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"supply-alerts/internal/alerting"
	"supply-alerts/internal/config"
	"supply-alerts/internal/fetcher"
	"supply-alerts/internal/service"
	"supply-alerts/internal/supply"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// CheckOptions configure a single supply check.
type CheckOptions struct {
	DryRun bool
}

// SupplyOptions configure the supply breakdown display.
type SupplyOptions struct {
	Raw bool
}

func (a *App) newFetcher() fetcher.TransparencyFetcher {
	return fetcher.NewTransparency(fetcher.TransparencyOptions{
		URL:       a.Config.Transparency.URL,
		Timeout:   a.Config.Transparency.RequestTimeout,
		UserAgent: a.Config.Transparency.UserAgent,
	}, a.Logger)
}

func (a *App) newDispatcher(dryRun bool) service.DispatcherFactory {
	if dryRun {
		return func() (alerting.Notifier, error) {
			return alerting.NewLogNotifier(a.Logger), nil
		}
	}
	ntfy := a.Config.Alerting.Ntfy
	return func() (alerting.Notifier, error) {
		return alerting.NewNtfyNotifier(ntfy.BaseURL, ntfy.RequestTimeout, a.Logger)
	}
}

func (a *App) runConfig() service.RunConfig {
	var minimum float64
	if a.Config.Alerting.SupplyMin != nil {
		minimum = *a.Config.Alerting.SupplyMin
	}
	return service.RunConfig{
		NotificationTopic: a.Config.Alerting.Ntfy.Topic,
		SupplyMinimum:     minimum,
		ClickURL:          a.Config.Alerting.Ntfy.ClickURL,
	}
}

// Check runs the fetch, aggregate and notify pipeline once.
func (a *App) Check(ctx context.Context, opts CheckOptions) error {
	if err := a.Config.ValidateCheck(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := service.New(a.runConfig(), a.newFetcher(), a.newDispatcher(opts.DryRun), a.Logger)
	return a.check(ctx, svc)
}

func (a *App) check(ctx context.Context, svc *service.Service) error {
	result, err := svc.Check(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("supply check failed")
		return err
	}

	fmt.Fprintf(a.Stderr, "Current supply: %s\n", supply.Format(result.Supply))
	if result.Notified {
		fmt.Fprintln(a.Stderr, "Notification sent")
	}

	a.Logger.Info().
		Float64("supply", result.Supply).
		Float64("minimum", result.Minimum).
		Bool("notified", result.Notified).
		Msg("supply check complete")
	return nil
}
