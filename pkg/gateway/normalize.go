package gateway

import "encoding/json"

// Normalize unwraps the gateway's inconsistently shaped responses into a flat
// value. The branches are ordered and first-match-wins; the function is
// idempotent and never panics. Callers downstream feed the output back into a
// model conversation, so malformed payloads become an error-shaped object
// rather than a Go error.
func Normalize(raw any) any {
	switch value := raw.(type) {
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			return map[string]any{
				"status":        "error",
				"error_message": "Invalid response format from server",
				"raw_response":  value,
			}
		}
		return parsed
	case map[string]any:
		if result, ok := value["result"]; ok {
			return result
		}
		if data, ok := value["data"]; ok {
			return data
		}
		// Already-flat payloads carry one of the gateway's top-level markers.
		for _, marker := range []string{"status", "trials", "results"} {
			if _, ok := value[marker]; ok {
				return value
			}
		}
		if response, ok := value["response"].(map[string]any); ok {
			return response
		}
		return value
	default:
		return raw
	}
}
