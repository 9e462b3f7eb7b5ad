// Package quality folds anomalies, correlations, and suggestions into one
// score in [0,1] and a recommended action for the clip.
package quality
