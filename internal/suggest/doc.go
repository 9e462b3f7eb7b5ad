// Package suggest derives ranked trim and split proposals from the reconciled
// timeline, each with reasoning, a confidence in [0,1], and the signal
// families (visual, audio) that support it.
package suggest
