package quote

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tracker"
	"github.com/shopspring/decimal"
)

// EODHDKeyEnv is the environment variable read when no API key is configured.
const EODHDKeyEnv = "EODHD_API_KEY"

const eodhdURL = "https://eodhd.com/api"

// EODHD quotes real-time prices and searches symbols on eodhd.com. Symbols
// are EODHD tickers, like "AAPL.US".
type EODHD struct {
	APIKey   string
	Client   *http.Client // http.DefaultClient if nil
	BaseURL  string       // eodhdURL if empty
	CacheDir string       // search results are cached here for the day
}

// NewEODHD returns an EODHD client. An empty key is read from EODHDKeyEnv.
func NewEODHD(apiKey string) *EODHD {
	if apiKey == "" {
		apiKey = os.Getenv(EODHDKeyEnv)
	}
	return &EODHD{APIKey: apiKey}
}

func (e *EODHD) base() string {
	if e.BaseURL == "" {
		return eodhdURL
	}
	return e.BaseURL
}

func (e *EODHD) client() *http.Client {
	if e.Client == nil {
		return http.DefaultClient
	}
	return e.Client
}

// Quote returns the latest price of an EODHD ticker.
//
//	{"code":"AAPL.US","timestamp":1719500000,"open":...,"close":214.1,"change_p":0.4}
func (e *EODHD) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	addr := fmt.Sprintf("%s/real-time/%s?fmt=json&api_token=%s", e.base(), url.PathEscape(symbol), url.QueryEscape(e.APIKey))

	var jobj any
	if err := jwget(ctx, e.client(), addr, &jobj); err != nil {
		return decimal.Zero, classify(symbol, err)
	}
	const path = "$.close"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteUnknown, Err: fmt.Errorf("error parsing %q: %w", path, err)}
	}
	// unknown tickers are answered with "NA" values.
	val, ok := jval.(float64)
	if !ok {
		return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteNotFound, Err: fmt.Errorf("no price in %q: %v", path, jval)}
	}
	return decimal.NewFromFloat(val), nil
}

// Search looks up tickers matching term. It returns nil on any failure.
func (e *EODHD) Search(ctx context.Context, term string) []tracker.SymbolMatch {
	addr := fmt.Sprintf("%s/search/%s?fmt=json&api_token=%s", e.base(), url.PathEscape(term), url.QueryEscape(e.APIKey))

	type result struct {
		Code     string
		Exchange string
		Name     string
		Currency string
	}
	content := make([]result, 0)
	client := e.Client
	if client == nil {
		// query each term at most once a day
		client = daily(e.CacheDir)
	}
	if err := jwget(ctx, client, addr, &content); err != nil {
		log.Printf("search %q: %v", term, err)
		return nil
	}

	matches := make([]tracker.SymbolMatch, 0, len(content))
	for _, r := range content {
		matches = append(matches, tracker.SymbolMatch{
			Symbol:      tracker.NormalizeSymbol(r.Code + "." + r.Exchange),
			DisplayName: fmt.Sprintf("%s (%s, %s)", r.Name, r.Exchange, r.Currency),
		})
	}
	return matches
}
