// Package utilization turns car ledgers into occupancy ratios of a fixed
// observation window.
//
// A car that holds no trip at all is reported with a ratio of exactly 1, not
// 0. This mirrors the rule used by the rental company reports: an idle car is
// placed at the bound of the range instead of being ranked as the worst
// performer. Callers that need "fraction of time busy" semantics must check
// Report.Occupied for zero before reading the ratio.
package utilization
