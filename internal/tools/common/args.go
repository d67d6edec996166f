package common

import (
	"fmt"
	"math"
	"strings"
)

// StringArg returns the trimmed string argument, or "" when it is missing or
// not a string.
func StringArg(args map[string]interface{}, key string) string {
	s, ok := args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// RequireString returns the trimmed string argument or an error naming key.
func RequireString(args map[string]interface{}, key string) (string, error) {
	s := StringArg(args, key)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// IntArg returns a whole-number argument, or def when it is missing. JSON
// numbers arrive as float64; numeric strings are accepted too.
func IntArg(args map[string]interface{}, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		var i int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &i); err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

// StringSliceArg accepts an array of strings or a comma-separated string.
// Empty entries are dropped.
func StringSliceArg(args map[string]interface{}, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}

	var raw []string
	switch s := v.(type) {
	case string:
		raw = strings.Split(s, ",")
	case []string:
		raw = s
	case []interface{}:
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
