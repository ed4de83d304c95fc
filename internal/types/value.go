package types

import (
	"fmt"
	"math"
	"time"
)

// Value represents a single dimension value. Concrete types use native Go types:
//   UInt8 -> uint8, UInt16 -> uint16, ..., String -> string, Timestamp -> int64
type Value = interface{}

// ToFloat64 converts a numeric value to float64 for arithmetic.
func ToFloat64(dt DataType, v Value) (float64, error) {
	switch dt {
	case TypeUInt8:
		return float64(v.(uint8)), nil
	case TypeUInt16:
		return float64(v.(uint16)), nil
	case TypeUInt32:
		return float64(v.(uint32)), nil
	case TypeUInt64:
		return float64(v.(uint64)), nil
	case TypeInt8:
		return float64(v.(int8)), nil
	case TypeInt16:
		return float64(v.(int16)), nil
	case TypeInt32:
		return float64(v.(int32)), nil
	case TypeInt64:
		return float64(v.(int64)), nil
	case TypeFloat32:
		return float64(v.(float32)), nil
	case TypeFloat64:
		return v.(float64), nil
	case TypeTimestamp:
		return float64(v.(int64)), nil
	default:
		return 0, fmt.Errorf("cannot convert %s to float64", dt.Name())
	}
}

// ToInt64 converts a numeric value to int64.
func ToInt64(dt DataType, v Value) (int64, error) {
	switch dt {
	case TypeUInt8:
		return int64(v.(uint8)), nil
	case TypeUInt16:
		return int64(v.(uint16)), nil
	case TypeUInt32:
		return int64(v.(uint32)), nil
	case TypeUInt64:
		return int64(v.(uint64)), nil
	case TypeInt8:
		return int64(v.(int8)), nil
	case TypeInt16:
		return int64(v.(int16)), nil
	case TypeInt32:
		return int64(v.(int32)), nil
	case TypeInt64:
		return v.(int64), nil
	case TypeFloat32:
		return int64(v.(float32)), nil
	case TypeFloat64:
		return int64(v.(float64)), nil
	case TypeTimestamp:
		return v.(int64), nil
	default:
		return 0, fmt.Errorf("cannot convert %s to int64", dt.Name())
	}
}

// ToInternal converts a value of an orderable type to the int64 internal
// coordinate used for range dimension bounds and slice intervals.
// Timestamps are already microseconds; integers map as-is.
func ToInternal(dt DataType, v Value) (int64, error) {
	if !dt.IsOrderable() {
		return 0, fmt.Errorf("type %s is not usable as a range coordinate", dt.Name())
	}
	return ToInt64(dt, v)
}

// CompareValues compares two values of the same DataType.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareValues(dt DataType, a, b Value) int {
	switch dt {
	case TypeUInt8:
		return cmpOrdered(a.(uint8), b.(uint8))
	case TypeUInt16:
		return cmpOrdered(a.(uint16), b.(uint16))
	case TypeUInt32:
		return cmpOrdered(a.(uint32), b.(uint32))
	case TypeUInt64:
		return cmpOrdered(a.(uint64), b.(uint64))
	case TypeInt8:
		return cmpOrdered(a.(int8), b.(int8))
	case TypeInt16:
		return cmpOrdered(a.(int16), b.(int16))
	case TypeInt32:
		return cmpOrdered(a.(int32), b.(int32))
	case TypeInt64:
		return cmpOrdered(a.(int64), b.(int64))
	case TypeFloat32:
		return cmpOrdered(a.(float32), b.(float32))
	case TypeFloat64:
		return cmpOrdered(a.(float64), b.(float64))
	case TypeString:
		return cmpOrdered(a.(string), b.(string))
	case TypeTimestamp:
		return cmpOrdered(a.(int64), b.(int64))
	default:
		return 0
	}
}

type ordered interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 | ~string
}

func cmpOrdered[T ordered](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// timestampLayouts are the accepted textual timestamp formats, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts a textual timestamp to microseconds since the Unix
// epoch. Dates without an explicit zone are interpreted as UTC.
func ParseTimestamp(s string) (int64, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMicro(), nil
		}
	}
	return 0, fmt.Errorf("cannot parse timestamp: %q", s)
}

// CoerceValue converts a literal value (as produced by the predicate parser:
// int64, float64 or string) to the native representation of dt.
// Returns false when the literal cannot represent a value of dt.
func CoerceValue(dt DataType, v Value) (Value, bool) {
	switch lit := v.(type) {
	case int64:
		return coerceInt(dt, lit)
	case float64:
		if dt == TypeFloat64 {
			return lit, true
		}
		if dt == TypeFloat32 {
			return float32(lit), true
		}
		// Integral floats fold into integer types.
		if lit == math.Trunc(lit) {
			return coerceInt(dt, int64(lit))
		}
		return nil, false
	case string:
		switch dt {
		case TypeString:
			return lit, true
		case TypeTimestamp:
			us, err := ParseTimestamp(lit)
			if err != nil {
				return nil, false
			}
			return us, true
		}
		return nil, false
	default:
		// Already-native values pass through when they match the type.
		if matchesNative(dt, v) {
			return v, true
		}
		return nil, false
	}
}

func coerceInt(dt DataType, n int64) (Value, bool) {
	switch dt {
	case TypeUInt8:
		if n >= 0 && n <= math.MaxUint8 {
			return uint8(n), true
		}
	case TypeUInt16:
		if n >= 0 && n <= math.MaxUint16 {
			return uint16(n), true
		}
	case TypeUInt32:
		if n >= 0 && n <= math.MaxUint32 {
			return uint32(n), true
		}
	case TypeUInt64:
		if n >= 0 {
			return uint64(n), true
		}
	case TypeInt8:
		if n >= math.MinInt8 && n <= math.MaxInt8 {
			return int8(n), true
		}
	case TypeInt16:
		if n >= math.MinInt16 && n <= math.MaxInt16 {
			return int16(n), true
		}
	case TypeInt32:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), true
		}
	case TypeInt64, TypeTimestamp:
		return n, true
	case TypeFloat32:
		return float32(n), true
	case TypeFloat64:
		return float64(n), true
	}
	return nil, false
}

func matchesNative(dt DataType, v Value) bool {
	switch dt {
	case TypeUInt8:
		_, ok := v.(uint8)
		return ok
	case TypeUInt16:
		_, ok := v.(uint16)
		return ok
	case TypeUInt32:
		_, ok := v.(uint32)
		return ok
	case TypeUInt64:
		_, ok := v.(uint64)
		return ok
	case TypeInt8:
		_, ok := v.(int8)
		return ok
	case TypeInt16:
		_, ok := v.(int16)
		return ok
	case TypeInt32:
		_, ok := v.(int32)
		return ok
	case TypeInt64, TypeTimestamp:
		_, ok := v.(int64)
		return ok
	case TypeFloat32:
		_, ok := v.(float32)
		return ok
	case TypeFloat64:
		_, ok := v.(float64)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	}
	return false
}

// ValueToString converts a value to its string representation.
func ValueToString(dt DataType, v Value) string {
	if v == nil {
		return "NULL"
	}
	if dt == TypeTimestamp {
		if us, ok := v.(int64); ok {
			return time.UnixMicro(us).UTC().Format(time.RFC3339Nano)
		}
	}
	return fmt.Sprintf("%v", v)
}
