package finding

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Well-known keys in Finding.Details. Details is schema-less; these are the
// keys the attack path graph knows how to turn into entities.
const (
	DetailUser              = "user"
	DetailProcessName       = "process_name"
	DetailCommand           = "command"
	DetailProcessPath       = "process_path"
	DetailParentProcessID   = "parent_process_id"
	DetailParentProcessName = "parent_process_name"
)

// Details holds backend-specific context for a finding. Values are usually
// strings or numbers but anything JSON can carry is tolerated.
type Details map[string]any

// String returns the string form of the value stored under key.
//
// A key counts as absent when it is missing, nil, an empty string, false or a
// numeric zero. Numbers are rendered without trailing zeros (4312, not
// 4312.000000) and any other type falls back to its fmt representation.
func (d Details) String(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d[key]
	if !ok {
		return "", false
	}
	return coerce(v)
}

// Has reports whether key holds a present value, using the same rules as String.
func (d Details) Has(key string) bool {
	_, ok := d.String(key)
	return ok
}

// First returns the first present value among keys, in the given order.
func (d Details) First(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := d.String(key); ok {
			return s, true
		}
	}
	return "", false
}

func coerce(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val), val != 0
	case int32:
		return strconv.FormatInt(int64(val), 10), val != 0
	case int64:
		return strconv.FormatInt(val, 10), val != 0
	case uint:
		return strconv.FormatUint(uint64(val), 10), val != 0
	case uint32:
		return strconv.FormatUint(uint64(val), 10), val != 0
	case uint64:
		return strconv.FormatUint(val, 10), val != 0
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return "", false
		}
		return val.String(), val != ""
	case fmt.Stringer:
		s := val.String()
		return s, s != ""
	default:
		s := fmt.Sprint(val)
		return s, s != ""
	}
}

func formatFloat(f float64) (string, bool) {
	if f == 0 || math.IsNaN(f) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
