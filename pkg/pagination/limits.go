package pagination

const (
	// DefaultMaxDays is the widest date window the analytics provider accepts
	// in a single request.
	DefaultMaxDays = 29

	// DefaultLimit is the item cap used for resources without an entry in
	// the limits table.
	DefaultLimit = 1000
)

// defaultLimits maps logical resource names to the item cap requested per
// window. Daily OHLCV rejects limits above 100.
var defaultLimits = map[string]int{
	"daily-ohlcv":     100,
	"hourly-ohlcv":    1000,
	"trader-grades":   1000,
	"investor-grades": 1000,
	"market-metrics":  1000,
	"trader-indices":  1000,
	"trading-signals": 1000,
}

// DefaultLimits returns a copy of the built-in per-resource limits.
func DefaultLimits() map[string]int {
	out := make(map[string]int, len(defaultLimits))
	for k, v := range defaultLimits {
		out[k] = v
	}
	return out
}
