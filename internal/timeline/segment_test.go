package timeline

import "testing"

func TestSegmentSplitsAtQualifyingSilence(t *testing.T) {
	words := []ReconciledWord{
		{Text: "the", OriginalStart: 0.0, OriginalEnd: 0.2, AdjustedStart: 0.0, Confidence: ConfidenceHigh},
		{Text: "end", OriginalStart: 5.0, OriginalEnd: 5.3, AdjustedStart: 4.9, Confidence: ConfidenceAdjusted},
	}
	silences := []SilenceInterval{{Start: 4.0, End: 4.9, Duration: 0.9}}

	got := Segment(words, silences, DefaultSegmentGap)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	first, second := got[0], got[1]
	if first.Start != 0.0 || first.End != 4.0 || first.Text != "the" || first.WordCount != 1 {
		t.Errorf("first segment = %+v", first)
	}
	if second.Start != 4.9 || second.End != 5.3 || second.Text != "end" || second.WordCount != 1 {
		t.Errorf("second segment = %+v", second)
	}
}

func TestSegmentIgnoresShortSilence(t *testing.T) {
	words := []ReconciledWord{
		{Text: "a", OriginalEnd: 0.5, AdjustedStart: 0.0},
		{Text: "b", OriginalStart: 0.7, OriginalEnd: 1.0, AdjustedStart: 0.7},
	}
	silences := []SilenceInterval{{Start: 0.5, End: 0.7, Duration: 0.2}}

	got := Segment(words, silences, DefaultSegmentGap)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Text != "a b" || got[0].WordCount != 2 {
		t.Errorf("segment = %+v", got[0])
	}
	if got[0].Start != 0.0 || got[0].End != 1.0 {
		t.Errorf("segment bounds = [%v, %v], want [0, 1]", got[0].Start, got[0].End)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if got := Segment(nil, nil, DefaultSegmentGap); got != nil {
		t.Errorf("expected nil segments for empty words, got %v", got)
	}
}

func TestSegmentMultipleSplits(t *testing.T) {
	words := []ReconciledWord{
		{Text: "one", OriginalEnd: 1.0, AdjustedStart: 0.5},
		{Text: "two", OriginalStart: 2.0, OriginalEnd: 2.5, AdjustedStart: 2.0},
		{Text: "three", OriginalStart: 4.0, OriginalEnd: 4.5, AdjustedStart: 4.0},
	}
	silences := []SilenceInterval{
		{Start: 1.0, End: 1.9, Duration: 0.9},
		{Start: 2.5, End: 3.9, Duration: 1.4},
	}

	got := Segment(words, silences, DefaultSegmentGap)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].End != 1.0 || got[1].Start != 2.0 || got[1].End != 2.5 || got[2].Start != 4.0 {
		t.Errorf("segments = %+v", got)
	}
}
