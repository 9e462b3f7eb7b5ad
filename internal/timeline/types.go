package timeline

// EventKind tags entries in the merged raw signal stream.
type EventKind string

const (
	EventScene        EventKind = "scene"
	EventSilenceStart EventKind = "silence_start"
	EventSilenceEnd   EventKind = "silence_end"
	EventSpeechStart  EventKind = "speech_start"
	EventSpeechEnd    EventKind = "speech_end"
)

// Event is one entry in the merged, time-sorted signal stream. Events are
// produced fresh per analysis and never persisted.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp float64   `json:"timestamp"`
	// Strength carries the detector's own confidence or score when it has one.
	Strength float64 `json:"strength,omitempty"`
}

// SceneChange is a visual cut reported by the scene detector.
type SceneChange struct {
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// SilenceInterval is a low-energy audio span reported by the silence detector.
type SilenceInterval struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Word is one transcribed word with the transcriber's reported boundaries.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the transcriber's full output for a clip.
type Transcript struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// WordConfidence reports whether a reconciled start kept the transcriber's
// timestamp or was corrected against detected silence.
type WordConfidence string

const (
	ConfidenceHigh     WordConfidence = "high"
	ConfidenceAdjusted WordConfidence = "adjusted"
)

// ReconciledWord is a transcript word whose start has been checked against
// independently detected silence. End timestamps are treated as reliable and
// pass through unchanged.
type ReconciledWord struct {
	Text          string         `json:"text"`
	OriginalStart float64        `json:"original_start"`
	OriginalEnd   float64        `json:"original_end"`
	AdjustedStart float64        `json:"adjusted_start"`
	Confidence    WordConfidence `json:"confidence"`
}

// AdjustedEnd returns the word's end boundary. Only starts are corrected, so
// this is always the transcriber's reported end.
func (w ReconciledWord) AdjustedEnd() float64 {
	return w.OriginalEnd
}

// SpeechSegment is a maximal run of reconciled words uninterrupted by a
// qualifying silence.
type SpeechSegment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	WordCount int     `json:"word_count"`
}
