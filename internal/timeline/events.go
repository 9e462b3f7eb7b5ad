package timeline

import "sort"

// MergeEvents flattens detector outputs into one tagged event stream sorted by
// timestamp. Adapter completion order varies between runs; sorting here once
// makes every downstream rule deterministic. Ties break on kind so repeated
// runs produce identical streams.
func MergeEvents(scenes []SceneChange, silences []SilenceInterval, segments []SpeechSegment) []Event {
	events := make([]Event, 0, len(scenes)+2*len(silences)+2*len(segments))

	for _, scene := range scenes {
		events = append(events, Event{Kind: EventScene, Timestamp: scene.Timestamp, Strength: scene.Confidence})
	}
	for _, silence := range silences {
		events = append(events,
			Event{Kind: EventSilenceStart, Timestamp: silence.Start},
			Event{Kind: EventSilenceEnd, Timestamp: silence.End},
		)
	}
	for _, segment := range segments {
		events = append(events,
			Event{Kind: EventSpeechStart, Timestamp: segment.Start},
			Event{Kind: EventSpeechEnd, Timestamp: segment.End},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].Kind < events[j].Kind
	})
	return events
}
