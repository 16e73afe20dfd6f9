package tracker

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// tradeLine is the on-disk shape of a TradeRecord.
type tradeLine struct {
	Date     Date             `json:"date"`
	Side     string           `json:"side"`
	Symbol   string           `json:"symbol"`
	Quantity Quantity         `json:"quantity"`
	Price    *decimal.Decimal `json:"price"` // nil when absent or null
	Currency string           `json:"currency,omitempty"`
	Account  string           `json:"account,omitempty"`
	Memo     string           `json:"memo,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface for TradeRecord.
func (r TradeRecord) MarshalJSON() ([]byte, error) {
	var w jsonObject
	w.field("date", r.Date)
	w.field("side", r.Side)
	w.field("symbol", r.Symbol)
	w.field("quantity", r.Quantity)
	w.field("price", r.Price.Decimal())
	w.optional("currency", r.Price.Currency())
	w.optional("account", r.Account)
	w.optional("memo", r.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for TradeRecord.
// The symbol and account are normalized, the record is not validated.
func (r *TradeRecord) UnmarshalJSON(data []byte) error {
	var line tradeLine
	if err := json.Unmarshal(data, &line); err != nil {
		return err
	}
	side, err := ParseSide(line.Side)
	if err != nil {
		return err
	}
	if line.Price == nil {
		return errors.New("price is missing")
	}
	*r = NewTrade(line.Date, side, line.Symbol, line.Quantity, M(*line.Price, line.Currency), line.Account)
	r.Memo = line.Memo
	return nil
}

// DecodeTrades decodes trade records from a stream of JSONL data, in stream
// order. Empty lines are skipped. Each record is validated, the first invalid
// record aborts decoding with an *InvalidRecordError.
func DecodeTrades(r io.Reader) ([]TradeRecord, error) {
	var trades []TradeRecord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}

		var rec TradeRecord
		if err := json.Unmarshal(lineBytes, &rec); err != nil {
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				return nil, fmt.Errorf("line %d: malformed record %q: %w", line, string(lineBytes), err)
			}
			return nil, &InvalidRecordError{Index: len(trades), Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		if err := rec.Validate(); err != nil {
			var ire *InvalidRecordError
			if errors.As(err, &ire) {
				ire.Index = len(trades)
				ire.Reason = fmt.Sprintf("line %d: %s", line, ire.Reason)
			}
			return nil, err
		}
		trades = append(trades, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return trades, nil
}

// EncodeTrade marshals a single record to JSON and writes it to the writer,
// followed by a newline, in a single Write call.
func EncodeTrade(w io.Writer, rec TradeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write trade: %w", err)
	}
	return nil
}

// EncodeTrades writes all records in order, in JSONL format.
func EncodeTrades(w io.Writer, trades []TradeRecord) error {
	for _, rec := range trades {
		if err := EncodeTrade(w, rec); err != nil {
			return err
		}
	}
	return nil
}
