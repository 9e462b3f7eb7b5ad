package suggest

import (
	"fmt"
	"math"

	"clipsmith/internal/timeline"
)

// Kind names an edit suggestion type.
type Kind string

const (
	KindTrim  Kind = "trim"
	KindSplit Kind = "split"
)

// Provenance names the signal families that contributed to a suggestion.
type Provenance string

const (
	ProvenanceVisual Provenance = "visual"
	ProvenanceAudio  Provenance = "audio"
)

// Parameters holds the edit points of a suggestion. Trim suggestions fill
// TrimStart/TrimEnd; split suggestions fill SplitPoint.
type Parameters struct {
	TrimStart  float64 `json:"trim_start,omitempty"`
	TrimEnd    float64 `json:"trim_end,omitempty"`
	SplitPoint float64 `json:"split_point,omitempty"`
}

// Suggestion is one ranked edit proposal with its reasoning and the signal
// families that support it.
type Suggestion struct {
	Kind       Kind         `json:"kind"`
	Parameters Parameters   `json:"parameters"`
	Reasoning  string       `json:"reasoning"`
	Confidence float64      `json:"confidence"`
	Provenance []Provenance `json:"provenance"`
}

const (
	leadThreshold      = 0.3
	minLeadTrim        = 0.1
	padSeconds         = 0.15
	sceneConfidence    = 0.9
	fallbackConfidence = 0.7
	splitMinSilence    = 1.0
	splitSceneWindow   = 0.3
	splitConfidence    = 0.6
	emitThreshold      = 0.1
)

// Generate derives trim and split proposals from the reconciled timeline.
// Suggestions are returned trim first, then splits in silence order.
func Generate(scenes []timeline.SceneChange, silences []timeline.SilenceInterval, segments []timeline.SpeechSegment, duration float64) []Suggestion {
	var suggestions []Suggestion
	if trim, ok := trimSuggestion(scenes, segments, duration); ok {
		suggestions = append(suggestions, trim)
	}
	suggestions = append(suggestions, splitSuggestions(scenes, silences)...)
	return suggestions
}

// trimSuggestion proposes cutting leading and trailing dead space. Scene
// changes near the speech boundary make for cleaner cuts and carry higher
// confidence; without one the cut falls just outside the speech with a small
// pad.
func trimSuggestion(scenes []timeline.SceneChange, segments []timeline.SpeechSegment, duration float64) (Suggestion, bool) {
	if len(segments) == 0 || duration <= 0 {
		return Suggestion{}, false
	}

	firstSpeech := segments[0].Start
	lastSpeech := segments[len(segments)-1].End

	trimStart := 0.0
	confidence := 0.0
	provenance := map[Provenance]struct{}{}

	if firstSpeech > leadThreshold {
		if scene, ok := latestSceneBefore(scenes, firstSpeech, minLeadTrim); ok {
			trimStart = scene
			confidence = sceneConfidence
			provenance[ProvenanceVisual] = struct{}{}
			provenance[ProvenanceAudio] = struct{}{}
		} else {
			trimStart = math.Max(0, firstSpeech-padSeconds)
			confidence = fallbackConfidence
			provenance[ProvenanceAudio] = struct{}{}
		}
	}

	trimEnd := duration
	if duration-lastSpeech > leadThreshold {
		if scene, ok := earliestSceneAfter(scenes, lastSpeech, duration-minLeadTrim); ok {
			trimEnd = scene
			confidence = math.Max(confidence, sceneConfidence)
			provenance[ProvenanceVisual] = struct{}{}
			provenance[ProvenanceAudio] = struct{}{}
		} else {
			trimEnd = math.Min(duration, lastSpeech+padSeconds)
			confidence = math.Max(confidence, fallbackConfidence)
			provenance[ProvenanceAudio] = struct{}{}
		}
	}

	if trimStart <= emitThreshold && trimEnd >= duration-emitThreshold {
		return Suggestion{}, false
	}

	return Suggestion{
		Kind:       KindTrim,
		Parameters: Parameters{TrimStart: trimStart, TrimEnd: trimEnd},
		Reasoning: fmt.Sprintf("speech spans %.2fs-%.2fs of a %.2fs clip; trimming to %.2fs-%.2fs removes dead space",
			firstSpeech, lastSpeech, duration, trimStart, trimEnd),
		Confidence: confidence,
		Provenance: provenanceList(provenance),
	}, true
}

// splitSuggestions proposes one split per silence longer than a second. A
// scene change near either silence edge becomes the split point; otherwise
// the silence midpoint is used.
func splitSuggestions(scenes []timeline.SceneChange, silences []timeline.SilenceInterval) []Suggestion {
	var qualifying []timeline.SilenceInterval
	for _, silence := range silences {
		if silence.Duration > splitMinSilence {
			qualifying = append(qualifying, silence)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	suggestions := make([]Suggestion, 0, len(qualifying))
	for _, silence := range qualifying {
		point := (silence.Start + silence.End) / 2
		provenance := []Provenance{ProvenanceAudio}
		at := "silence midpoint"
		for _, scene := range scenes {
			if math.Abs(scene.Timestamp-silence.Start) <= splitSceneWindow ||
				math.Abs(scene.Timestamp-silence.End) <= splitSceneWindow {
				point = scene.Timestamp
				provenance = []Provenance{ProvenanceVisual, ProvenanceAudio}
				at = "scene change near silence edge"
				break
			}
		}
		suggestions = append(suggestions, Suggestion{
			Kind:       KindSplit,
			Parameters: Parameters{SplitPoint: point},
			Reasoning: fmt.Sprintf("%d silence(s) longer than %.1fs; split at %s (%.2fs)",
				len(qualifying), splitMinSilence, at, point),
			Confidence: splitConfidence,
			Provenance: provenance,
		})
	}
	return suggestions
}

// latestSceneBefore returns the latest scene change in (after, before).
func latestSceneBefore(scenes []timeline.SceneChange, before, after float64) (float64, bool) {
	best := 0.0
	found := false
	for _, scene := range scenes {
		if scene.Timestamp < before && scene.Timestamp > after {
			if !found || scene.Timestamp > best {
				best = scene.Timestamp
				found = true
			}
		}
	}
	return best, found
}

// earliestSceneAfter returns the earliest scene change in (after, before).
func earliestSceneAfter(scenes []timeline.SceneChange, after, before float64) (float64, bool) {
	best := 0.0
	found := false
	for _, scene := range scenes {
		if scene.Timestamp > after && scene.Timestamp < before {
			if !found || scene.Timestamp < best {
				best = scene.Timestamp
				found = true
			}
		}
	}
	return best, found
}

func provenanceList(set map[Provenance]struct{}) []Provenance {
	var list []Provenance
	for _, p := range []Provenance{ProvenanceVisual, ProvenanceAudio} {
		if _, ok := set[p]; ok {
			list = append(list, p)
		}
	}
	return list
}

// TrimSuggestion returns the first trim suggestion in the list, if any.
func TrimSuggestion(suggestions []Suggestion) (Suggestion, bool) {
	for _, s := range suggestions {
		if s.Kind == KindTrim {
			return s, true
		}
	}
	return Suggestion{}, false
}
