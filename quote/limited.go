package quote

import (
	"context"

	"github.com/etnz/tracker"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Limited throttles the requests sent to a provider.
type Limited struct {
	provider tracker.QuoteProvider
	limiter  *rate.Limiter
}

// NewLimited allows perSecond requests to p, with bursts of burst requests.
func NewLimited(p tracker.QuoteProvider, perSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{provider: p, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Quote waits for a token then forwards the request. When no token can be
// obtained before ctx expires the quote fails as rate limited, without
// reaching the provider.
func (l *Limited) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteRateLimited, Err: err}
	}
	return l.provider.Quote(ctx, symbol)
}
