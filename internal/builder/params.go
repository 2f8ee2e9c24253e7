package builder

// Architecture maps arrive from JSON (numbers as float64), config files and
// Go callers (typed ints). These helpers coerce without caring which.

func intValue(m map[string]any, key string, def int) int {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func floatValue(m map[string]any, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

func stringValue(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

func boolValue(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func intSlice(m map[string]any, key string, def []int) []int {
	v, ok := m[key]
	if !ok {
		return append([]int(nil), def...)
	}
	switch s := v.(type) {
	case []int:
		return append([]int(nil), s...)
	case []any:
		out := make([]int, 0, len(s))
		for _, e := range s {
			switch n := e.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				out = append(out, int(n))
			default:
				return append([]int(nil), def...)
			}
		}
		return out
	case []float64:
		out := make([]int, 0, len(s))
		for _, e := range s {
			out = append(out, int(e))
		}
		return out
	default:
		return append([]int(nil), def...)
	}
}

func toAnySlice(s []int) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
