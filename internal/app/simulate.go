package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"supply-alerts/internal/fetcher"
	"supply-alerts/internal/service"
)

// SimulateAlert runs the decide and notify stages against a synthetic feed
// reporting the given supply.
func (a *App) SimulateAlert(ctx context.Context, supplyValue decimal.Decimal, opts CheckOptions) error {
	if err := a.Config.ValidateCheck(); err != nil {
		return err
	}
	if supplyValue.IsNegative() {
		return errors.New("--supply cannot be negative")
	}

	body, err := syntheticPayload(supplyValue)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("supply", supplyValue.String()).Bool("dry_run", opts.DryRun).Msg("simulating supply check")

	svc := service.New(a.runConfig(), &staticTransparencyFetcher{body: body}, a.newDispatcher(opts.DryRun), a.Logger)
	return a.check(ctx, svc)
}

func syntheticPayload(supplyValue decimal.Decimal) (string, error) {
	payload := map[string]any{
		"data": map[string]any{
			"usdt": map[string]any{
				"totaltokens_simulated": supplyValue.String(),
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal simulated payload: %w", err)
	}
	return string(raw), nil
}

type staticTransparencyFetcher struct {
	body string
}

func (s *staticTransparencyFetcher) FetchTransparency(context.Context) (string, error) {
	return s.body, nil
}

var _ fetcher.TransparencyFetcher = (*staticTransparencyFetcher)(nil)
