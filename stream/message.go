package stream

import (
	"encoding/json"
	"strconv"
)

// Lookup walks nested objects by key and returns the value at path.
func Lookup(msg Message, path ...string) (any, bool) {
	cur := msg
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString returns the string at path, if present.
func LookupString(msg Message, path ...string) (string, bool) {
	v, ok := Lookup(msg, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// LookupUint returns the non-negative integer at path, if present.
func LookupUint(msg Message, path ...string) (uint64, bool) {
	v, ok := Lookup(msg, path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return u, true
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

// LookupFloat returns the number at path as a float64, if present.
func LookupFloat(msg Message, path ...string) (float64, bool) {
	v, ok := Lookup(msg, path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Has reports whether an object message carries key, whatever its value.
func Has(msg Message, key string) bool {
	_, ok := Lookup(msg, key)
	return ok
}

// Type returns the message's "type" field, or "" when absent.
func Type(msg Message) string {
	t, _ := LookupString(msg, "type")
	return t
}
