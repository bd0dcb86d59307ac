// Package metrics defines what an assignment run reports for observation:
// one RunEvent per pass, a UtilizationSample per car and phase, and a
// TripOutcomeEvent per trip decision. Sinks are registered by name and
// built from the metrics section of the configuration; several configured
// sinks are combined into a MultiSink.
package metrics
