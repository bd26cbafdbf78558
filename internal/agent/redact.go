package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

const redacted = "***REDACTED***"

var redactKeys = map[string]struct{}{
	"password":      {},
	"passwd":        {},
	"api_key":       {},
	"apikey":        {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"authorization": {},
	"private_key":   {},
	"secret":        {},
}

// secretAssignment matches KEY=value pairs whose name looks secret, as they
// appear in shell commands (OPENAI_API_KEY=sk-... npm run dev).
var secretAssignment = regexp.MustCompile(`(?i)\b([A-Z0-9_]*(?:API_KEY|TOKEN|SECRET|PASSWORD)[A-Z0-9_]*)=("[^"]*"|'[^']*'|\S+)`)

// RedactJSONArgs masks secret-looking values in tool input before it is
// logged. Objects are masked by key; strings by KEY=value assignments.
func RedactJSONArgs(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return redactAssignments(raw)
	}

	b, err := json.Marshal(redactValue(v))
	if err != nil {
		return raw
	}
	return string(b)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if _, ok := redactKeys[strings.ToLower(k)]; ok {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = redactValue(t[i])
		}
		return out
	case string:
		return redactAssignments(t)
	default:
		return v
	}
}

func redactAssignments(s string) string {
	return secretAssignment.ReplaceAllString(s, "${1}="+redacted)
}
