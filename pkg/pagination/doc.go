// Package pagination fetches complete result sets from providers whose
// page-based pagination cannot be trusted and whose requests are limited to
// a maximum date span.
//
// Instead of walking pages, the Aggregator splits the requested date range
// into windows (see package daterange), issues one full request per window at
// page 0 with the largest allowed limit, and merges the responses into a
// single Result. Windows are fetched strictly one after another.
//
// Example usage:
//
//	agg := pagination.NewAggregator(tmClient, pagination.DefaultConfig())
//	res := agg.Fetch(ctx, "GET", "trader-grades", pagination.Params{
//		"symbol":    "BTC,ETH",
//		"startDate": "2024-01-01",
//		"endDate":   "2024-06-30",
//	}, pagination.DefaultMaxDays)
//
// The aggregator:
//   - Forces limit to the per-resource cap (or a WithLimit override)
//   - Drops any caller-supplied page and always requests page 0
//   - Skips windows whose request fails, without retrying them
//   - Concatenates items in window order, last window wins for metadata
//   - Reports {"data": []} when nothing was collected
//
// Failed windows are indistinguishable from empty ones in the Result. Callers
// that need to know can count failures through a ProgressFunc.
package pagination
