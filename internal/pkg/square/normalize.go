package square

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// maxSafeInteger is the largest integer a JSON consumer backed by IEEE 754
// doubles can round-trip losslessly (2^53 - 1).
const maxSafeInteger = 1<<53 - 1

// NormalizeNumbers rewrites 64-bit integer fields (money amounts,
// timestamps) that exceed the double-safe range into strings so the
// frontend's JSON parser cannot silently corrupt them. Anything that
// fails to decode is returned unchanged.
func NormalizeNumbers(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return raw
	}

	normalized, err := json.Marshal(normalizeValue(value))
	if err != nil {
		return raw
	}
	return normalized
}

// NormalizeEach applies NormalizeNumbers to a list of raw objects.
func NormalizeEach(raws []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(raws))
	for i, raw := range raws {
		out[i] = NormalizeNumbers(raw)
	}
	return out
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, inner := range v {
			v[key] = normalizeValue(inner)
		}
		return v
	case []interface{}:
		for i, inner := range v {
			v[i] = normalizeValue(inner)
		}
		return v
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			// Not a plain integer; leave floats and exponents alone.
			return v
		}
		if n > maxSafeInteger || n < -maxSafeInteger {
			return v.String()
		}
		return v
	default:
		return v
	}
}
