package tracker

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout of a Date.
const DateFormat = "2006-01-02"

// lenientFormat also accepts single digit months and days.
const lenientFormat = "2006-1-2"

// Date is a calendar day. Trades have no time of day: two trades on the
// same Date are ordered by their position in the ledger.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the Date of year, month and day, normalized like
// time.Date (day 0 of March is the last day of February).
func NewDate(year int, month time.Month, day int) Date {
	return dateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// Today returns the current local date.
func Today() Date { return dateOf(time.Now()) }

func (d Date) midnight() time.Time { return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC) }

func (d Date) String() string { return d.midnight().Format(DateFormat) }
func (d Date) IsZero() bool   { return d == Date{} }

// Compare returns -1, 0 or +1 when d is before, on or after o.
func (d Date) Compare(o Date) int { return d.midnight().Compare(o.midnight()) }

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// AddDays returns the date n days after d, before d if n is negative.
func (d Date) AddDays(n int) Date { return NewDate(d.year, d.month, d.day+n) }

// AddMonths returns the same day n months after d, normalized.
func (d Date) AddMonths(n int) Date { return NewDate(d.year, d.month+time.Month(n), d.day) }

// offsetRE matches offsets from today: a mandatory sign, a count and a unit
// (days, weeks, months, quarters, years).
var offsetRE = regexp.MustCompile(`^([+-])(\d+)([dwmqy])$`)

// ParseDate parses a date typed by a user. Besides "YYYY-MM-DD" (single
// digits allowed) it accepts "today" and offsets from today like "-1d",
// "+2w", "-3m", "-1q" or "-1y".
func ParseDate(str string) (Date, error) {
	str = strings.TrimSpace(str)
	if str == "today" || str == "0d" {
		return Today(), nil
	}
	if m := offsetRE.FindStringSubmatch(str); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Date{}, fmt.Errorf("invalid offset %q: %w", str, err)
		}
		if m[1] == "-" {
			n = -n
		}
		today := Today()
		switch m[3] {
		case "d":
			return today.AddDays(n), nil
		case "w":
			return today.AddDays(7 * n), nil
		case "m":
			return today.AddMonths(n), nil
		case "q":
			return today.AddMonths(3 * n), nil
		default:
			return today.AddMonths(12 * n), nil
		}
	}
	return ParseISODate(str)
}

// ParseISODate parses a "YYYY-MM-DD" date (single digits allowed). Unlike
// ParseDate it never depends on the current day, stored data uses it.
func ParseISODate(str string) (Date, error) {
	t, err := time.Parse(lenientFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q", str, DateFormat)
	}
	return dateOf(t), nil
}

// MustParse is like ParseDate but panics on error.
func MustParse(str string) Date {
	d, err := ParseDate(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// UnmarshalJSON only accepts absolute dates: a ledger must read the same
// whatever the day.
func (d *Date) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseISODate(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }
