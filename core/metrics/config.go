package metrics

import "github.com/kilianp07/tripshift/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr exposes /metrics when set, e.g. ":9100".
	PrometheusAddr string `json:"prometheus_addr"`
	// APIToken protects the run history routes served next to /metrics.
	APIToken string `json:"api_token"`
}
