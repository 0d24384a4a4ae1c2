package shared

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month. It is the key type for forecast
// override and calculated-forecast maps and the unit the simulator walks in.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf truncates a timestamp to its calendar month.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the canonical "2006-01" form.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("shared: parse year-month %q: %w", s, err)
	}
	return YearMonthOf(t), nil
}

// String renders the canonical "2006-01" form.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// AddMonths returns the month n steps away (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	return YearMonthOf(ym.First().AddDate(0, n, 0))
}

// First returns midnight UTC on the first day of the month.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar days in the month.
func (ym YearMonth) Days() int {
	return ym.First().AddDate(0, 1, -1).Day()
}

// Before reports whether ym precedes other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// MonthsBetween returns how many whole months separate a from b (b-a).
func MonthsBetween(a, b YearMonth) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}

// MonthRange returns n consecutive months starting at from.
func MonthRange(from YearMonth, n int) []YearMonth {
	out := make([]YearMonth, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, from.AddMonths(i))
	}
	return out
}

// MarshalText makes YearMonth usable as a JSON object key.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText parses the canonical form.
func (ym *YearMonth) UnmarshalText(data []byte) error {
	parsed, err := ParseYearMonth(string(data))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
