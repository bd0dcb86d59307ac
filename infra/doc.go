// Package infra contains the technical adapters around the assignment core:
// the CSV trip loader, the MQTT report publisher, the zerolog logger and the
// Prometheus and InfluxDB metrics sinks. Adapters depend on core interfaces,
// never the other way round.
package infra
