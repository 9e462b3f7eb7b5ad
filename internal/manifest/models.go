package manifest

import (
	"fmt"
	"strings"
	"time"

	"clipsmith/internal/services/render"
)

// Status represents the review lifecycle of a source clip's edit manifest.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusApproved   Status = "approved"
	StatusArchived   Status = "archived"
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusReview:     2,
	StatusApproved:   3,
	StatusArchived:   4,
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether moving to next is allowed. The lifecycle only
// moves forward; re-entering the current state is a no-op and allowed.
func (s Status) CanTransition(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// ParseStatus converts user input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// VariationSource records how a variation came to exist.
type VariationSource string

const (
	SourceManual VariationSource = "manual"
	SourceAuto   VariationSource = "auto"
)

// Variation is one rendered edit of a source clip. IDs are assigned in
// creation order and never reused.
type Variation struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	Kind      string          `json:"kind"`
	Params    render.Params   `json:"params"`
	Path      string          `json:"path"`
	Source    VariationSource `json:"source"`
	RequestID string          `json:"request_id,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// FormatVariationID renders the canonical zero-padded variation id.
func FormatVariationID(seq int64) string {
	return fmt.Sprintf("v%03d", seq)
}

// Manifest is the persistent edit record for one source clip.
type Manifest struct {
	SourceRef    string      `json:"source_ref"`
	ClipPath     string      `json:"clip_path"`
	Context      string      `json:"context,omitempty"`
	Duration     float64     `json:"duration,omitempty"`
	Status       Status      `json:"status"`
	SelectedID   string      `json:"selected_id,omitempty"`
	AnalysisJSON string      `json:"analysis_json,omitempty"`
	Variations   []Variation `json:"variations"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Variation returns the variation with the given id, if present.
func (m *Manifest) Variation(id string) (Variation, bool) {
	for _, v := range m.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

// SelectedPath returns the file to use for the clip: the selected variation's
// render when one is chosen, the source clip otherwise.
func (m *Manifest) SelectedPath() string {
	if v, ok := m.Variation(m.SelectedID); ok {
		return v.Path
	}
	return m.ClipPath
}
