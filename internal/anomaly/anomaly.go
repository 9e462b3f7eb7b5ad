package anomaly

import (
	"fmt"

	"clipsmith/internal/timeline"
)

// Severity grades how strongly an anomaly should influence the quality score.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Kind names an anomaly rule.
type Kind string

const (
	KindSceneChangeMidWord Kind = "scene_change_mid_word"
	KindEntranceWithSpeech Kind = "entrance_with_speech"
	KindDeadTime           Kind = "dead_time_detected"
	KindVisualGlitch       Kind = "visual_glitch"
	KindDialogueMismatch   Kind = "dialogue_mismatch"
)

// Anomaly is a typed, severity-tagged deviation detected over the reconciled
// timeline.
type Anomaly struct {
	Kind        Kind     `json:"kind"`
	Timestamp   float64  `json:"timestamp"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Input carries everything the rule set inspects.
type Input struct {
	Scenes   []timeline.SceneChange
	Segments []timeline.SpeechSegment
	Duration float64
	// ExpectedDialogue enables the dialogue-mismatch rule when non-empty.
	ExpectedDialogue string
	// TranscriptText is the transcriber's full text output.
	TranscriptText string
	// GuardBand is the edge exclusion for the mid-word rule. Zero means the
	// default tolerance.
	GuardBand float64
}

const (
	entranceSceneCutoff  = 0.5
	entranceSpeechCutoff = 1.0
	deadTimeThreshold    = 0.5
	glitchWindow         = 0.5
	dialogueMatchCutoff  = 0.5
)

// Classify runs every rule over the timeline. Rules are independent; several
// may fire on the same clip. Results are ordered rule by rule, each rule's
// findings in timestamp order.
func Classify(in Input) []Anomaly {
	guard := in.GuardBand
	if guard <= 0 {
		guard = timeline.DefaultTolerance
	}

	var anomalies []Anomaly
	anomalies = append(anomalies, sceneChangeMidWord(in.Scenes, in.Segments, guard)...)
	if a, ok := entranceWithSpeech(in.Scenes, in.Segments); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := deadTime(in.Scenes, in.Segments, in.Duration); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := visualGlitch(in.Scenes); ok {
		anomalies = append(anomalies, a)
	}
	if a, ok := dialogueMismatch(in.ExpectedDialogue, in.TranscriptText); ok {
		anomalies = append(anomalies, a)
	}
	return anomalies
}

// sceneChangeMidWord flags scene changes landing strictly inside a speech
// segment, excluding a guard band at the segment edges.
func sceneChangeMidWord(scenes []timeline.SceneChange, segments []timeline.SpeechSegment, guard float64) []Anomaly {
	var anomalies []Anomaly
	for _, scene := range scenes {
		for _, segment := range segments {
			if scene.Timestamp > segment.Start+guard && scene.Timestamp < segment.End-guard {
				anomalies = append(anomalies, Anomaly{
					Kind:      KindSceneChangeMidWord,
					Timestamp: scene.Timestamp,
					Severity:  SeverityWarning,
					Description: fmt.Sprintf("scene change at %.2fs interrupts speech running %.2fs-%.2fs",
						scene.Timestamp, segment.Start, segment.End),
				})
				break
			}
		}
	}
	return anomalies
}

// entranceWithSpeech flags visual establishment and speech onset racing each
// other at the head of the clip.
func entranceWithSpeech(scenes []timeline.SceneChange, segments []timeline.SpeechSegment) (Anomaly, bool) {
	if len(scenes) == 0 || len(segments) == 0 {
		return Anomaly{}, false
	}
	firstScene := scenes[0].Timestamp
	for _, scene := range scenes[1:] {
		if scene.Timestamp < firstScene {
			firstScene = scene.Timestamp
		}
	}
	firstSpeech := segments[0].Start
	for _, segment := range segments[1:] {
		if segment.Start < firstSpeech {
			firstSpeech = segment.Start
		}
	}
	if firstScene < entranceSceneCutoff && firstSpeech < entranceSpeechCutoff {
		return Anomaly{
			Kind:      KindEntranceWithSpeech,
			Timestamp: firstScene,
			Severity:  SeverityWarning,
			Description: fmt.Sprintf("scene change at %.2fs races speech starting at %.2fs",
				firstScene, firstSpeech),
		}, true
	}
	return Anomaly{}, false
}

// deadTime flags a trailing gap after the last speech with no visual activity.
func deadTime(scenes []timeline.SceneChange, segments []timeline.SpeechSegment, duration float64) (Anomaly, bool) {
	if len(segments) == 0 || duration <= 0 {
		return Anomaly{}, false
	}
	lastSpeech := segments[len(segments)-1].End
	for _, segment := range segments {
		if segment.End > lastSpeech {
			lastSpeech = segment.End
		}
	}
	if duration-lastSpeech <= deadTimeThreshold {
		return Anomaly{}, false
	}
	for _, scene := range scenes {
		if scene.Timestamp > lastSpeech {
			return Anomaly{}, false
		}
	}
	return Anomaly{
		Kind:      KindDeadTime,
		Timestamp: lastSpeech,
		Severity:  SeverityInfo,
		Description: fmt.Sprintf("%.2fs of dead time after speech ends at %.2fs",
			duration-lastSpeech, lastSpeech),
	}, true
}

// visualGlitch flags the first window of three scene changes inside half a
// second. Reported once; later windows are noise once the first is known.
func visualGlitch(scenes []timeline.SceneChange) (Anomaly, bool) {
	for i := 0; i+2 < len(scenes); i++ {
		span := scenes[i+2].Timestamp - scenes[i].Timestamp
		if span <= glitchWindow {
			return Anomaly{
				Kind:      KindVisualGlitch,
				Timestamp: scenes[i].Timestamp,
				Severity:  SeverityWarning,
				Description: fmt.Sprintf("three scene changes within %.2fs starting at %.2fs",
					span, scenes[i].Timestamp),
			}, true
		}
	}
	return Anomaly{}, false
}

// dialogueMismatch compares the expected dialogue against the transcript when
// expected text was supplied with the analysis request.
func dialogueMismatch(expected, actual string) (Anomaly, bool) {
	expectedSet := normalizeWords(expected)
	if len(expectedSet) == 0 {
		return Anomaly{}, false
	}
	actualSet := normalizeWords(actual)

	matched := 0
	for word := range expectedSet {
		if _, ok := actualSet[word]; ok {
			matched++
		}
	}
	score := float64(matched) / float64(len(expectedSet))
	if score >= dialogueMatchCutoff {
		return Anomaly{}, false
	}
	return Anomaly{
		Kind:     KindDialogueMismatch,
		Severity: SeverityWarning,
		Description: fmt.Sprintf("transcript matches %.0f%% of expected dialogue (%d of %d words)",
			score*100, matched, len(expectedSet)),
	}, true
}
