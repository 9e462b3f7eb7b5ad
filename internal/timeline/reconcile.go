package timeline

// DefaultTolerance is the window, in seconds, used when matching
// independently timestamped events.
const DefaultTolerance = 0.15

// Reconcile corrects transcript word starts against independently detected
// silence. Transcribers are known to compress silence gaps, reporting a word
// as starting earlier than it was actually spoken; a silence that ends between
// the prior word and the word's reported end is strong evidence of the real
// start.
//
// For each word after the first, silences whose end falls within
// [priorWord.adjustedEnd - tolerance, word.end + tolerance] are scanned and
// the latest qualifying end becomes the adjusted start, capped at the word's
// own end. Words with no qualifying silence keep the transcriber's start and
// high confidence. The first word is never adjusted: there is no prior word
// to bound the search.
func Reconcile(words []Word, silences []SilenceInterval, tolerance float64) []ReconciledWord {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if len(words) == 0 {
		return nil
	}

	reconciled := make([]ReconciledWord, 0, len(words))
	for i, word := range words {
		entry := ReconciledWord{
			Text:          word.Text,
			OriginalStart: word.Start,
			OriginalEnd:   word.End,
			AdjustedStart: word.Start,
			Confidence:    ConfidenceHigh,
		}

		if i > 0 {
			prior := reconciled[i-1]
			lower := prior.AdjustedEnd() - tolerance
			upper := word.End + tolerance

			best := 0.0
			found := false
			for _, silence := range silences {
				if silence.End < lower || silence.End > upper {
					continue
				}
				if !found || silence.End > best {
					best = silence.End
					found = true
				}
			}
			if found {
				if best > word.End {
					best = word.End
				}
				entry.AdjustedStart = best
				entry.Confidence = ConfidenceAdjusted
			}
		}

		reconciled = append(reconciled, entry)
	}
	return reconciled
}
