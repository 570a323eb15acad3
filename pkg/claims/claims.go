// Package claims filters untrusted key/value payloads before they are
// embedded in identity tokens or written to logs.
package claims

import (
	"encoding/json"
	"strings"

	"github.com/tilvane/accountd/pkg/constants"
)

const redacted = "**REDACTED**"

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range constants.SensitiveKeys {
		if lower == s {
			return true
		}
	}
	return false
}

// Cleanse returns a copy of obj containing only scalar values (strings,
// numbers, booleans) with all sensitive keys dropped. The result is safe to
// embed as token claims: no credentials, no nested structures.
func Cleanse(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for key, value := range obj {
		if isSensitive(key) {
			continue
		}
		switch value.(type) {
		case string, bool,
			int, int32, int64,
			float32, float64,
			json.Number:
			out[key] = value
		}
	}
	return out
}

// RedactedJSON serializes v to JSON with sensitive values replaced, for
// logging request payloads without leaking credentials. Marshalling failures
// collapse to an empty object rather than erroring a log call.
func RedactedJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "{}"
	}
	out, err := json.Marshal(redact(parsed))
	if err != nil {
		return "{}"
	}
	return string(out)
}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for key, value := range t {
			if isSensitive(key) {
				if _, isList := value.([]any); isList {
					t[key] = []any{redacted}
				} else {
					t[key] = redacted
				}
				continue
			}
			t[key] = redact(value)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = redact(item)
		}
		return t
	default:
		return v
	}
}
