package quote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/etnz/tracker"
	"github.com/shopspring/decimal"
)

const tradegateURL = "https://www.tradegate.de/refresh.php"

// Tradegate quotes the latest price exchanged on Tradegate, in EUR.
//
// Tradegate is queried by ISIN: symbols are mapped with ISIN, and a symbol
// missing from the map is used as the ISIN itself when it looks like one.
type Tradegate struct {
	Client  *http.Client      // http.DefaultClient if nil
	BaseURL string            // refresh endpoint, tradegateURL if empty
	ISIN    map[string]string // symbol to ISIN
}

/*
Tradegate refresh payload, values are numbers or strings with comma
decimals, "./." when empty:

	{"bid":"41,02","ask":"41,10","last":"41,06","bidsize":500, ...}
*/

// Quote returns the last traded price of symbol, or the bid when nothing
// traded yet.
func (t *Tradegate) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	isin, ok := t.ISIN[symbol]
	if !ok {
		if !looksLikeISIN(symbol) {
			return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteNotFound, Err: errors.New("no ISIN known for this symbol")}
		}
		isin = symbol
	}

	base := t.BaseURL
	if base == "" {
		base = tradegateURL
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	var jobj map[string]any
	if err := jwget(ctx, client, base+"?isin="+isin, &jobj); err != nil {
		return decimal.Zero, classify(symbol, err)
	}

	// last is the last transaction, moves slower than the bid, but the bid can be 0.
	jval := jobj["last"]
	if s, ok := jval.(string); ok && s == "./." {
		log.Printf("%s: 'last' is empty, falling back to 'bid'", symbol)
		jval = jobj["bid"]
	}
	val, err := parseTradegateValue(jval)
	if err != nil {
		return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteUnknown, Err: err}
	}
	if val.IsZero() {
		// an empty bid is returned as 0
		return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteNotFound, Err: fmt.Errorf("empty bid, bidsize=%v", jobj["bidsize"])}
	}
	return val, nil
}

// parseTradegateValue reads a number that may be sent as a string.
func parseTradegateValue(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		val, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("value is an invalid string %q: %w", v, err)
		}
		return val, nil
	default:
		return decimal.Zero, fmt.Errorf("value is neither a number nor a string: %v", jval)
	}
}

// looksLikeISIN checks the shape of an ISIN: country code, nine
// alphanumerics and a check digit.
func looksLikeISIN(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i, r := range s {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return false
		case i == 11 && (r < '0' || r > '9'):
			return false
		case (r < 'A' || r > 'Z') && (r < '0' || r > '9'):
			return false
		}
	}
	return true
}
