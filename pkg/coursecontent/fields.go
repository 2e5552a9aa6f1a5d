package coursecontent

import "time"

// Clone returns a deep copy of f. Nested maps and slices are copied; other
// values are shared.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of f with every top-level field of patch applied.
func (f Fields) Merge(patch Fields) Fields {
	out := f.Clone()
	if out == nil {
		out = Fields{}
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Fields:
		return x.Clone()
	case map[string]any:
		return map[string]any(Fields(x).Clone())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case *time.Time:
		if x == nil {
			return nil
		}
		t := *x
		return &t
	default:
		return v
	}
}
