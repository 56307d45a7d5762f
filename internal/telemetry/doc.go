// Package telemetry exports fit metrics through OpenTelemetry. Without a
// configured collector a no-op recorder is used.
package telemetry
