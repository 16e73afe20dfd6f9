package tracker

import "github.com/shopspring/decimal"

// number is any value that converts exactly (or, for floats, by shortest
// representation) to a decimal.
type number interface {
	int | int32 | int64 | uint | uint32 | uint64 | float32 | float64 | decimal.Decimal
}

func toDecimal[T number](v T) decimal.Decimal {
	switch x := any(v).(type) {
	case decimal.Decimal:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return decimal.NewFromUint64(uint64(x))
	case uint32:
		return decimal.NewFromUint64(uint64(x))
	default:
		return decimal.NewFromUint64(any(v).(uint64))
	}
}

// Quantity is a number of units of an instrument. Fractional units are
// exact.
type Quantity struct {
	value decimal.Decimal
}

// Q returns the Quantity v.
func Q[T number](v T) Quantity { return Quantity{value: toDecimal(v)} }

func (q Quantity) Add(o Quantity) Quantity  { return Quantity{value: q.value.Add(o.value)} }
func (q Quantity) Sub(o Quantity) Quantity  { return Quantity{value: q.value.Sub(o.value)} }
func (q Quantity) Equal(o Quantity) bool    { return q.value.Equal(o.value) }
func (q Quantity) IsZero() bool             { return q.value.IsZero() }
func (q Quantity) IsPositive() bool         { return q.value.IsPositive() }
func (q Quantity) IsNegative() bool         { return q.value.IsNegative() }
func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) String() string           { return q.value.String() }

func (q Quantity) MarshalJSON() ([]byte, error)     { return q.value.MarshalJSON() }
func (q *Quantity) UnmarshalJSON(data []byte) error { return q.value.UnmarshalJSON(data) }
