package tracker

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecord is matched by every *InvalidRecordError.
	ErrInvalidRecord = errors.New("invalid trade record")
	// ErrOrphanSell is matched by every *OrphanSellError.
	ErrOrphanSell = errors.New("sell without buy history")
	// ErrQuote is matched by every *QuoteError.
	ErrQuote = errors.New("quote unavailable")
	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("ledger storage failure")
)

// InvalidRecordError reports a malformed trade record.
type InvalidRecordError struct {
	Index  int // position in the batch, -1 when validated alone
	Record TradeRecord
	Reason string
}

func (e *InvalidRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid trade record: %s", e.Reason)
	}
	return fmt.Sprintf("invalid trade record #%d: %s", e.Index, e.Reason)
}

func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// OrphanSellError reports a sell recorded against a key that has no buy to
// derive an average cost from.
type OrphanSellError struct {
	Key      Key
	Date     Date
	Quantity Quantity
}

func (e *OrphanSellError) Error() string {
	return fmt.Sprintf("on %s, sell of %s %s has no buy history", e.Date, e.Quantity, e.Key)
}

func (e *OrphanSellError) Is(target error) bool { return target == ErrOrphanSell }

// QuoteErrorKind classifies quote failures.
type QuoteErrorKind int

const (
	QuoteUnknown QuoteErrorKind = iota
	QuoteNotFound
	QuoteTimeout
	QuoteRateLimited
)

func (k QuoteErrorKind) String() string {
	switch k {
	case QuoteNotFound:
		return "not_found"
	case QuoteTimeout:
		return "timeout"
	case QuoteRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// QuoteError reports that no live price could be obtained for a symbol.
type QuoteError struct {
	Symbol string
	Kind   QuoteErrorKind
	Err    error // underlying cause, may be nil
}

func (e *QuoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("quote %s: %s", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("quote %s: %s: %v", e.Symbol, e.Kind, e.Err)
}

func (e *QuoteError) Unwrap() error        { return e.Err }
func (e *QuoteError) Is(target error) bool { return target == ErrQuote }

// AsQuoteError converts any quote failure into a *QuoteError. Context
// cancellation and deadlines are classified as timeouts.
func AsQuoteError(symbol string, err error) *QuoteError {
	var qe *QuoteError
	if errors.As(err, &qe) {
		return qe
	}
	kind := QuoteUnknown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = QuoteTimeout
	}
	return &QuoteError{Symbol: symbol, Kind: kind, Err: err}
}

// StorageError reports a ledger read or write failure.
type StorageError struct {
	Op   string // "load" or "append"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
