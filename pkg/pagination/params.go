package pagination

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Well-known parameter names.
const (
	ParamStartDate = "startDate"
	ParamEndDate   = "endDate"
	ParamLimit     = "limit"
	ParamPage      = "page"
)

// Params holds request filters plus the pagination controls.
// Values are scalars (string, bool, integers, floats) or string/int slices.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the value of key formatted as a query value, or "" when the
// key is missing or nil.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}

// Values encodes the params as URL query values. Slices are joined with
// commas, which is how the providers accept multi-valued filters.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := p[k]
		if v == nil {
			continue
		}
		values.Set(k, formatValue(v))
	}
	return values
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ",")
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
