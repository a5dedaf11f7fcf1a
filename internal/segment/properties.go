package segment

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Properties is a feature's open-ended attribute bag. Values are whatever
// encoding/json produced: string, float64, bool, nil, or nested maps/slices.
type Properties map[string]any

// FirstPresent returns the value of the first key that is present and
// non-empty. Nil, "", 0 and false all count as empty.
func (p Properties) FirstPresent(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := p[k]
		if ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

// FirstString is FirstPresent rendered as a string.
func (p Properties) FirstString(keys ...string) (string, bool) {
	v, ok := p.FirstPresent(keys...)
	if !ok {
		return "", false
	}
	return valueString(v), true
}

// FirstFloat returns the first present value among keys that parses as a
// number. Keys whose values do not parse are skipped.
func (p Properties) FirstFloat(keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || !present(v) {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// Text flattens every property value into one lower-cased string for
// substring matching. Keys are visited in sorted order.
func (p Properties) Text() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if p[k] == nil {
			continue
		}
		parts = append(parts, valueString(p[k]))
	}
	return strings.ToLower(strings.Join(parts, " | "))
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
