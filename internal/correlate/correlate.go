package correlate

import (
	"math"
	"sort"

	"clipsmith/internal/timeline"
)

// Kind names the audio boundary a scene change aligned with.
type Kind string

const (
	KindSceneAtSilence        Kind = "scene_at_silence"
	KindSceneAtSpeechBoundary Kind = "scene_at_speech_boundary"
)

// Correlation records a temporal alignment between a scene change and an
// audio-derived boundary within tolerance.
type Correlation struct {
	Kind       Kind    `json:"kind"`
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// Policy controls how a scene change that aligns with both a silence boundary
// and a speech boundary is recorded.
type Policy string

const (
	// PolicyExclusive keeps only the silence correlation. This reproduces the
	// original behaviour: the silence match suppresses the speech-boundary
	// match even when both are within tolerance.
	PolicyExclusive Policy = "exclusive"
	// PolicyBoth records both correlations.
	PolicyBoth Policy = "both"
)

const (
	silenceConfidence = 0.9
	speechConfidence  = 0.8
)

// Options configures correlation.
type Options struct {
	// Tolerance is the alignment window in seconds. Zero means the default.
	Tolerance float64
	// Policy defaults to PolicyExclusive.
	Policy Policy
}

// Correlate finds temporal alignments between scene changes and audio-derived
// boundaries. For each scene change, silence interval boundaries are tested
// first; under the exclusive policy a silence match suppresses the
// speech-boundary test for that event. Scene changes aligning with nothing
// produce no record. Output is sorted by timestamp.
func Correlate(scenes []timeline.SceneChange, silences []timeline.SilenceInterval, segments []timeline.SpeechSegment, opts Options) []Correlation {
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = timeline.DefaultTolerance
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyExclusive
	}

	var correlations []Correlation
	for _, scene := range scenes {
		matchedSilence := false
		for _, silence := range silences {
			if within(scene.Timestamp, silence.Start, tolerance) || within(scene.Timestamp, silence.End, tolerance) {
				correlations = append(correlations, Correlation{
					Kind:       KindSceneAtSilence,
					Timestamp:  scene.Timestamp,
					Confidence: silenceConfidence,
				})
				matchedSilence = true
				break
			}
		}
		if matchedSilence && policy == PolicyExclusive {
			continue
		}
		for _, segment := range segments {
			if within(scene.Timestamp, segment.Start, tolerance) || within(scene.Timestamp, segment.End, tolerance) {
				correlations = append(correlations, Correlation{
					Kind:       KindSceneAtSpeechBoundary,
					Timestamp:  scene.Timestamp,
					Confidence: speechConfidence,
				})
				break
			}
		}
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		return correlations[i].Timestamp < correlations[j].Timestamp
	})
	return correlations
}

func within(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
