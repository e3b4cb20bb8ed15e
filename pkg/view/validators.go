package view

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	errInvalidInteger = errors.New("Invalid integer")          //nolint:staticcheck // user-facing form message
	errNotNatural     = errors.New("Must be a natural number") //nolint:staticcheck // user-facing form message
)

// IgnoreEmpty drops a missing, nil or empty-string value and skips the rest
// of the chain.
var IgnoreEmpty = Validator{
	Name: "ignore_empty",
	fn: func(value any, present bool) (any, error) {
		if !present || value == nil {
			return nil, errSkipField
		}
		if s, ok := value.(string); ok && s == "" {
			return nil, errSkipField
		}
		return value, nil
	},
}

// NaturalNumber converts the value to an int and rejects negatives.
var NaturalNumber = Validator{
	Name: "natural_number_validator",
	fn: func(value any, _ bool) (any, error) {
		n, err := toInt(value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errNotNatural
		}
		return n, nil
	},
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, errInvalidInteger
		}
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		return toInt(string(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errInvalidInteger
		}
		return n, nil
	default:
		return 0, errInvalidInteger
	}
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errInvalidInteger
	}
	return int(f), nil
}
