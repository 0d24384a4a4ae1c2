package shared

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LenientFloat coerces loosely-typed values (JSONB blobs, operator-entered
// strings) into a float64, mapping anything malformed or non-finite to zero.
// Keeping the coercion in one named function keeps the zero-fallback
// semantics auditable instead of scattering ad hoc parsing through the
// business logic.
func LenientFloat(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(v)
	case float32:
		return finiteOrZero(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// LenientQtyMap decodes a {"2006-01": qty} object through LenientFloat.
// Keys that do not parse as a year-month are dropped.
func LenientQtyMap(raw map[string]any) map[YearMonth]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[YearMonth]float64, len(raw))
	for key, value := range raw {
		ym, err := ParseYearMonth(key)
		if err != nil {
			continue
		}
		out[ym] = LenientFloat(value)
	}
	return out
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
