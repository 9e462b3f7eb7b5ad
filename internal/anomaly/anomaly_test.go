package anomaly

import (
	"testing"

	"clipsmith/internal/timeline"
)

func TestVisualGlitchReportedOnce(t *testing.T) {
	scenes := []timeline.SceneChange{
		{Timestamp: 0.1}, {Timestamp: 0.2}, {Timestamp: 0.3},
	}

	got := Classify(Input{Scenes: scenes, Duration: 10})
	var glitches []Anomaly
	for _, a := range got {
		if a.Kind == KindVisualGlitch {
			glitches = append(glitches, a)
		}
	}
	if len(glitches) != 1 {
		t.Fatalf("glitch count = %d, want exactly 1", len(glitches))
	}
	if glitches[0].Timestamp != 0.1 {
		t.Errorf("glitch timestamp = %v, want 0.1", glitches[0].Timestamp)
	}
	if glitches[0].Severity != SeverityWarning {
		t.Errorf("severity = %q, want warning", glitches[0].Severity)
	}
}

func TestVisualGlitchNeedsTightWindow(t *testing.T) {
	scenes := []timeline.SceneChange{
		{Timestamp: 0.0}, {Timestamp: 0.4}, {Timestamp: 0.9},
	}
	got := Classify(Input{Scenes: scenes, Duration: 10})
	for _, a := range got {
		if a.Kind == KindVisualGlitch {
			t.Errorf("unexpected glitch for scenes spread over %v", scenes)
		}
	}
}

func TestSceneChangeMidWord(t *testing.T) {
	segments := []timeline.SpeechSegment{{Start: 1.0, End: 3.0, Text: "hello there", WordCount: 2}}

	tests := []struct {
		name  string
		scene float64
		want  bool
	}{
		{"mid segment", 2.0, true},
		{"inside leading guard band", 1.1, false},
		{"inside trailing guard band", 2.9, false},
		{"just past leading guard", 1.2, true},
		{"clearly inside", 1.5, true},
		{"outside segment", 4.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(Input{
				Scenes:   []timeline.SceneChange{{Timestamp: tt.scene}},
				Segments: segments,
				Duration: 10,
			})
			found := false
			for _, a := range got {
				if a.Kind == KindSceneChangeMidWord {
					found = true
				}
			}
			if found != tt.want {
				t.Errorf("scene at %v: midword=%v, want %v", tt.scene, found, tt.want)
			}
		})
	}
}

func TestEntranceWithSpeech(t *testing.T) {
	got := Classify(Input{
		Scenes:   []timeline.SceneChange{{Timestamp: 0.3}},
		Segments: []timeline.SpeechSegment{{Start: 0.6, End: 4.0}},
		Duration: 5,
	})
	found := false
	for _, a := range got {
		if a.Kind == KindEntranceWithSpeech {
			found = true
			if a.Severity != SeverityWarning {
				t.Errorf("severity = %q, want warning", a.Severity)
			}
		}
	}
	if !found {
		t.Error("expected entrance_with_speech anomaly")
	}
}

func TestEntranceWithSpeechNotFiredForLateScene(t *testing.T) {
	got := Classify(Input{
		Scenes:   []timeline.SceneChange{{Timestamp: 0.8}},
		Segments: []timeline.SpeechSegment{{Start: 0.2, End: 4.0}},
		Duration: 5,
	})
	for _, a := range got {
		if a.Kind == KindEntranceWithSpeech {
			t.Error("rule should not fire when the first scene is past 0.5s")
		}
	}
}

func TestDeadTimeDetected(t *testing.T) {
	got := Classify(Input{
		Segments: []timeline.SpeechSegment{{Start: 1.0, End: 6.0}},
		Duration: 8.0,
	})
	found := false
	for _, a := range got {
		if a.Kind == KindDeadTime {
			found = true
			if a.Severity != SeverityInfo {
				t.Errorf("severity = %q, want info", a.Severity)
			}
			if a.Timestamp != 6.0 {
				t.Errorf("timestamp = %v, want 6.0", a.Timestamp)
			}
		}
	}
	if !found {
		t.Error("expected dead_time_detected anomaly")
	}
}

func TestDeadTimeSuppressedBySceneAfterSpeech(t *testing.T) {
	got := Classify(Input{
		Scenes:   []timeline.SceneChange{{Timestamp: 7.0}},
		Segments: []timeline.SpeechSegment{{Start: 1.0, End: 6.0}},
		Duration: 8.0,
	})
	for _, a := range got {
		if a.Kind == KindDeadTime {
			t.Error("scene after speech end should suppress dead time")
		}
	}
}

func TestDialogueMismatch(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{"clean match", "Hello there, world!", "hello there world", false},
		{"near miss above cutoff", "one two three four", "one two zzz qqq", false},
		{"mismatch", "alpha beta gamma delta", "epsilon zeta eta", true},
		{"punctuation and case ignored", "STOP! Right; there.", "stop right there", false},
		{"no expected text disables rule", "", "whatever", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(Input{
				ExpectedDialogue: tt.expected,
				TranscriptText:   tt.actual,
				Duration:         5,
			})
			found := false
			for _, a := range got {
				if a.Kind == KindDialogueMismatch {
					found = true
				}
			}
			if found != tt.want {
				t.Errorf("mismatch fired=%v, want %v", found, tt.want)
			}
		})
	}
}

func TestRulesAreIndependent(t *testing.T) {
	got := Classify(Input{
		Scenes:   []timeline.SceneChange{{Timestamp: 0.1}, {Timestamp: 0.2}, {Timestamp: 0.3}},
		Segments: []timeline.SpeechSegment{{Start: 0.5, End: 2.0}},
		Duration: 8.0,
	})
	kinds := map[Kind]int{}
	for _, a := range got {
		kinds[a.Kind]++
	}
	if kinds[KindVisualGlitch] != 1 {
		t.Errorf("visual glitch count = %d", kinds[KindVisualGlitch])
	}
	if kinds[KindEntranceWithSpeech] != 1 {
		t.Errorf("entrance count = %d", kinds[KindEntranceWithSpeech])
	}
	if kinds[KindDeadTime] != 1 {
		t.Errorf("dead time count = %d", kinds[KindDeadTime])
	}
}
