package timeline

import "strings"

// DefaultSegmentGap is the minimum silence duration, in seconds, that splits
// speech into separate segments.
const DefaultSegmentGap = 0.3

// Segment folds reconciled words into maximal speech segments. A new segment
// opens at the first word after any silence of at least minGap seconds that
// falls between the previous word's end and the current word's end; the prior
// segment closes at that silence's start. Empty input yields zero segments.
func Segment(words []ReconciledWord, silences []SilenceInterval, minGap float64) []SpeechSegment {
	if minGap <= 0 {
		minGap = DefaultSegmentGap
	}
	if len(words) == 0 {
		return nil
	}

	var segments []SpeechSegment
	var texts []string

	current := SpeechSegment{Start: words[0].AdjustedStart}
	texts = append(texts, words[0].Text)
	current.WordCount = 1
	lastEnd := words[0].AdjustedEnd()

	for _, word := range words[1:] {
		if silence, ok := splittingSilence(silences, lastEnd, word.AdjustedEnd(), minGap); ok {
			current.End = silence.Start
			current.Text = strings.Join(texts, " ")
			segments = append(segments, current)

			current = SpeechSegment{Start: word.AdjustedStart}
			texts = texts[:0]
		}
		texts = append(texts, word.Text)
		current.WordCount++
		lastEnd = word.AdjustedEnd()
	}

	current.End = lastEnd
	current.Text = strings.Join(texts, " ")
	segments = append(segments, current)
	return segments
}

// splittingSilence returns the first silence of at least minGap seconds whose
// start lies between the previous word's end and the current word's end.
func splittingSilence(silences []SilenceInterval, prevEnd, curEnd, minGap float64) (SilenceInterval, bool) {
	for _, silence := range silences {
		if silence.Duration < minGap {
			continue
		}
		if silence.Start >= prevEnd && silence.Start < curEnd {
			return silence, true
		}
	}
	return SilenceInterval{}, false
}
