// Package timeline holds the reconciled-timeline model and the two pure
// transforms at the head of the analysis pipeline: Reconcile, which corrects
// transcript word starts against detected silence, and Segment, which folds
// reconciled words into continuous speech segments.
//
// All timestamps are seconds from clip start. The package has no external
// dependencies and no side effects; adapters produce its inputs and the
// correlation, anomaly, and suggestion packages consume its outputs.
package timeline
