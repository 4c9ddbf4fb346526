package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing timestamp strings.
// CSV exports are inconsistent about seconds and the T separator.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// IsNull reports whether a raw value counts as null: nil, or a string that
// is empty after trimming (CSV empty cells arrive both ways).
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Coerce converts a non-null raw value to the rule's target type. The
// returned value is one of int64, float64, string, bool, or time.Time.
func (r Rule) Coerce(v any) (any, error) {
	switch r.Type {
	case TypeInteger:
		return coerceInteger(v)
	case TypeFloat:
		return coerceFloat(v)
	case TypeString:
		return coerceString(v)
	case TypeBoolean:
		return coerceBoolean(v)
	case TypeTimestamp:
		return CoerceTimestamp(v)
	default:
		return nil, fmt.Errorf("unsupported type %q", r.Type)
	}
}

func coerceInteger(v any) (int64, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || math.Trunc(val) != val {
			return 0, fmt.Errorf("%v is not an integer", val)
		}
		return int64(val), nil
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		// Spreadsheet exports render integer columns as "12.0".
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.Trunc(f) != f {
			return 0, fmt.Errorf("%q is not an integer", val)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("%v is not a finite number", val)
		}
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		// ParseFloat accepts "NaN" and "Inf" spellings (pandas renders
		// missing floats as NaN); neither survives a range check or
		// belongs in a metric column.
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a finite number", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func coerceString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

func coerceBoolean(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "Y", "YES", "TRUE", "1":
			return true, nil
		case "N", "NO", "FALSE", "0":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", val)
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", v)
	}
}

// CoerceTimestamp parses a raw value into a time.Time.
func CoerceTimestamp(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a timestamp", val)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to timestamp", v)
	}
}

// Numeric extracts a float64 from a coerced value for range checks.
func Numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	}
	return 0, false
}

// FormatBound renders a range bound the way it appears in violation
// messages: integral values without a decimal point.
func FormatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
