// Package growth holds the measurement data model: specimen time series,
// per-capita growth-rate samples, parameter vectors and fit results.
package growth
