// Package analysis orchestrates the signal detectors over a clip and feeds
// their output through reconciliation, correlation, anomaly classification,
// suggestion generation, and quality scoring.
package analysis
