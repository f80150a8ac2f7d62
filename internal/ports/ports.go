package ports

import (
	"context"

	"TrendWatch/internal/scanner"
)

// ItemSource invokes every configured source adapter and returns one settled
// result per source, in configuration order.
type ItemSource interface {
	Collect(ctx context.Context) ([]scanner.Result, error)
	Sources() []string
}

// Publisher delivers a rendered digest to the downstream endpoint.
type Publisher interface {
	Publish(ctx context.Context, payload string) error
}
