package query

import "fmt"

// Preview bounds the size of values a query returns. Zero fields are
// unlimited.
type Preview struct {
	MaxArrayItems int
	MaxStringLen  int
	MaxDepth      int
}

// DefaultPreview keeps a handful of array items and trims long strings,
// which is enough to show the shape of a decoded body.
var DefaultPreview = Preview{MaxArrayItems: 5, MaxStringLen: 500}

// Shrink returns a copy of v with arrays and strings cut to the preview
// limits. Cut points are marked in place so a reader can tell data is missing.
func (p Preview) Shrink(v any) any {
	return p.shrink(v, 0)
}

func (p Preview) shrink(v any, depth int) any {
	if p.MaxDepth > 0 && depth >= p.MaxDepth {
		switch v.(type) {
		case []any, map[string]any:
			return "[max depth]"
		}
		return v
	}

	switch val := v.(type) {
	case string:
		if p.MaxStringLen <= 0 || len(val) <= p.MaxStringLen {
			return val
		}
		return val[:p.MaxStringLen] + fmt.Sprintf("... (%d more bytes)", len(val)-p.MaxStringLen)
	case []any:
		n := len(val)
		if p.MaxArrayItems > 0 && n > p.MaxArrayItems {
			n = p.MaxArrayItems
		}
		out := make([]any, 0, n+1)
		for _, item := range val[:n] {
			out = append(out, p.shrink(item, depth+1))
		}
		if n < len(val) {
			out = append(out, fmt.Sprintf("... (%d more items)", len(val)-n))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = p.shrink(item, depth+1)
		}
		return out
	}
	return v
}
