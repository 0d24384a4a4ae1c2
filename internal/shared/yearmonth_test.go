package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseYearMonth(t *testing.T) {
	ym, err := ParseYearMonth("2025-02")
	require.NoError(t, err)
	require.Equal(t, YearMonth{Year: 2025, Month: time.February}, ym)
	require.Equal(t, "2025-02", ym.String())

	_, err = ParseYearMonth("2025/02")
	require.Error(t, err)
}

func TestAddMonthsCrossesYearBoundary(t *testing.T) {
	ym := YearMonth{Year: 2024, Month: time.November}
	require.Equal(t, YearMonth{Year: 2025, Month: time.February}, ym.AddMonths(3))
	require.Equal(t, YearMonth{Year: 2024, Month: time.August}, ym.AddMonths(-3))
}

func TestDaysHandlesLeapFebruary(t *testing.T) {
	require.Equal(t, 29, YearMonth{Year: 2024, Month: time.February}.Days())
	require.Equal(t, 28, YearMonth{Year: 2025, Month: time.February}.Days())
	require.Equal(t, 31, YearMonth{Year: 2025, Month: time.January}.Days())
}

func TestMonthsBetween(t *testing.T) {
	a := YearMonth{Year: 2024, Month: time.November}
	b := YearMonth{Year: 2025, Month: time.February}
	require.Equal(t, 3, MonthsBetween(a, b))
	require.Equal(t, -3, MonthsBetween(b, a))
}

func TestMonthRange(t *testing.T) {
	months := MonthRange(YearMonth{Year: 2024, Month: time.December}, 3)
	require.Len(t, months, 3)
	require.Equal(t, "2024-12", months[0].String())
	require.Equal(t, "2025-02", months[2].String())
}

func TestYearMonthAsJSONKey(t *testing.T) {
	in := map[YearMonth]float64{
		{Year: 2025, Month: time.March}: 120,
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"2025-03":120}`, string(raw))

	var out map[YearMonth]float64
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, in, out)
}
