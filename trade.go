package tracker

import (
	"fmt"
	"slices"
	"strings"
)

// Side is the direction of a trade.
type Side int

const (
	// Buy adds units to a position.
	Buy Side = iota + 1
	// Sell removes units from a position.
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide parses "buy" or "sell", case insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown trade side: %q", s)
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	if s != Buy && s != Sell {
		return nil, fmt.Errorf("cannot marshal trade side %d", int(s))
	}
	return []byte(`"` + s.String() + `"`), nil
}

// TradeRecord is a single execution as recorded in the ledger. It is never
// modified once created.
type TradeRecord struct {
	Date     Date
	Symbol   string // upper case, never empty in a valid record
	Side     Side
	Quantity Quantity // number of units traded
	Price    Money    // price per unit
	Account  string   // optional, "" is the implicit default account
	Memo     string
}

// NewTrade creates a trade record with a normalized symbol and account.
// The record is not validated, see [TradeRecord.Validate].
func NewTrade(day Date, side Side, symbol string, quantity Quantity, price Money, account string) TradeRecord {
	return TradeRecord{
		Date:     day,
		Symbol:   NormalizeSymbol(symbol),
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Account:  strings.TrimSpace(account),
	}
}

// NormalizeSymbol returns the canonical form of an instrument identifier.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Key returns the grouping key of this record.
func (r TradeRecord) Key(g Grouping) Key {
	if g == BySymbolAndAccount {
		return Key{Symbol: r.Symbol, Account: r.Account}
	}
	return Key{Symbol: r.Symbol}
}

// Cost returns quantity × price.
func (r TradeRecord) Cost() Money { return r.Price.Mul(r.Quantity) }

// Validate checks that the record can enter the core. It returns an
// *InvalidRecordError describing the first problem found.
func (r TradeRecord) Validate() error {
	invalid := func(format string, args ...any) error {
		return &InvalidRecordError{Index: -1, Record: r, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case r.Date.IsZero():
		return invalid("date is missing")
	case r.Symbol == "":
		return invalid("symbol is missing")
	case r.Symbol != NormalizeSymbol(r.Symbol):
		return invalid("symbol %q is not normalized", r.Symbol)
	case r.Side != Buy && r.Side != Sell:
		return invalid("unrecognized side %d", int(r.Side))
	case r.Quantity.IsNegative():
		return invalid("quantity must not be negative, got %s", r.Quantity)
	case r.Quantity.IsZero():
		return invalid("quantity must not be zero")
	case r.Price.IsNegative():
		return invalid("price must not be negative, got %s", r.Price.Decimal())
	}
	return nil
}

func (r TradeRecord) String() string {
	s := fmt.Sprintf("%s %s %s %s @ %s", r.Date, r.Side, r.Quantity, r.Symbol, r.Price.Decimal())
	if r.Account != "" {
		s += " [" + r.Account + "]"
	}
	return s
}

// Grouping selects how trades are grouped into positions.
type Grouping int

const (
	// BySymbol ignores accounts: one position per instrument.
	BySymbol Grouping = iota
	// BySymbolAndAccount keeps one position per instrument and account.
	BySymbolAndAccount
)

// Key identifies a position.
type Key struct {
	Symbol  string
	Account string // empty unless grouping by account
}

func (k Key) String() string {
	if k.Account == "" {
		return k.Symbol
	}
	return k.Symbol + "@" + k.Account
}

// Compare orders keys by symbol then account.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(k.Symbol, o.Symbol); c != 0 {
		return c
	}
	return strings.Compare(k.Account, o.Account)
}

func sortByKey[T any](list []T, key func(T) Key) {
	slices.SortFunc(list, func(a, b T) int { return key(a).Compare(key(b)) })
}
