package security

import "strings"

// Placeholder replaces redacted values.
const Placeholder = "***"

var sensitiveSubstrings = []string{
	"token",
	"password",
	"passwd",
	"passphrase",
	"authorization",
	"apikey",
	"api_key",
	"access_key",
	"private_key",
	"credential",
	"secret",
	"cookie",
	"session",
	"jwt",
	"bearer",
	"signature",
}

var allowList = map[string]struct{}{
	"secret_name":    {},
	"correlation_id": {},
	"correlationid":  {},
}

// RedactArguments returns a deep copy of values with sensitive entries replaced.
func RedactArguments(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	return redactMap(values)
}

func redactMap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		if IsSensitiveKey(key) {
			out[key] = Placeholder
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return redactMap(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = redactValue(item)
		}
		return items
	default:
		return value
	}
}

// IsSensitiveKey reports whether an argument name looks like it holds a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if _, ok := allowList[lower]; ok {
		return false
	}
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
