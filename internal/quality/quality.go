package quality

import (
	"clipsmith/internal/anomaly"
	"clipsmith/internal/correlate"
	"clipsmith/internal/suggest"
)

// Action is the recommended next step for a clip.
type Action string

const (
	ActionUseAsIs    Action = "use_as_is"
	ActionTrim       Action = "trim"
	ActionReview     Action = "review"
	ActionRegenerate Action = "regenerate"
)

// Assessment is the aggregate judgment of a clip's usability.
type Assessment struct {
	Score             float64 `json:"score"`
	RecommendedAction Action  `json:"recommended_action"`
}

// Input carries the evidence the scorer aggregates.
type Input struct {
	Anomalies      []anomaly.Anomaly
	Correlations   []correlate.Correlation
	Suggestions    []suggest.Suggestion
	SpeechDuration float64
	ClipDuration   float64
	// DegradedCount is the number of signal sources that returned no or
	// partial data; each one costs a fixed penalty.
	DegradedCount int
}

const (
	errorPenalty     = 0.3
	warningPenalty   = 0.1
	infoPenalty      = 0.02
	correlationBonus = 0.05
	paceBonus        = 0.1
	paceLowerRatio   = 0.3
	paceUpperRatio   = 0.9
	degradedPenalty  = 0.1
	regenerateCutoff = 0.5
)

// Score aggregates anomalies and correlations into a single score in [0,1]
// and a recommended action.
func Score(in Input) Assessment {
	score := 1.0

	hasError := false
	hasWarning := false
	for _, a := range in.Anomalies {
		switch a.Severity {
		case anomaly.SeverityError:
			score -= errorPenalty
			hasError = true
		case anomaly.SeverityWarning:
			score -= warningPenalty
			hasWarning = true
		case anomaly.SeverityInfo:
			score -= infoPenalty
		}
	}

	score += correlationBonus * float64(len(in.Correlations))

	if in.ClipDuration > 0 {
		ratio := in.SpeechDuration / in.ClipDuration
		if ratio > paceLowerRatio && ratio < paceUpperRatio {
			score += paceBonus
		}
	}

	score -= degradedPenalty * float64(in.DegradedCount)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	_, hasTrim := suggest.TrimSuggestion(in.Suggestions)

	action := ActionUseAsIs
	switch {
	case hasError || score < regenerateCutoff:
		action = ActionRegenerate
	case hasTrim:
		action = ActionTrim
	case hasWarning:
		action = ActionReview
	}

	return Assessment{Score: score, RecommendedAction: action}
}
