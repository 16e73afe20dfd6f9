// Package quote implements tracker.QuoteProvider on top of market data
// services, and tracker.SymbolSearcher where the service has a search
// endpoint.
//
// Every failure is returned as a *tracker.QuoteError: a 404 is
// QuoteNotFound, a 429 is QuoteRateLimited, network timeouts and context
// deadlines are QuoteTimeout, anything else is QuoteUnknown.
package quote
