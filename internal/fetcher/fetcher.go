package fetcher

import (
	"context"
)

// TransparencyFetcher retrieves the raw transparency feed body.
type TransparencyFetcher interface {
	FetchTransparency(ctx context.Context) (string, error)
}
