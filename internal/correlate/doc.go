// Package correlate matches scene changes against audio-derived boundaries.
//
// A scene change landing within the tolerance window of a silence boundary or
// a speech segment boundary is evidence that the visual cut was intentional.
// Silence matches carry higher confidence than speech-boundary matches, and by
// default suppress them for the same scene event (Policy controls this).
package correlate
