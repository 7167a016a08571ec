package models

import "strings"

// DecoratedTranslation is a Translation with its means, synonyms and examples
// pre-joined for display
type DecoratedTranslation struct {
	Translation
	MeansJoined    string `json:"means_joined"`
	SynonymsJoined string `json:"synonyms_joined"`
	ExamplesJoined string `json:"examples_joined"`
}

// Result is the UI-ready view of a lookup response.
// A nil *Result means nothing was looked up yet; Empty means the lookup
// returned no definitions.
type Result struct {
	// Definitions is the raw server response, kept for persistence and re-normalization
	Definitions   []Definition           `json:"def"`
	Text          string                 `json:"text"`
	Transcription string                 `json:"transcription"`
	Translations  []DecoratedTranslation `json:"translations"`
}

// Empty is the "no result" sentinel
var Empty = &Result{
	Definitions:  []Definition{},
	Translations: []DecoratedTranslation{},
}

// IsEmpty reports whether the result holds no definitions
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Definitions) == 0
}

// Equal compares results by headword only.
// Two distinct lookups sharing a headword compare equal; history and the
// result cache depend on this.
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Text == other.Text
}

// String renders one line per translation, followed by its means in parentheses
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for i, t := range r.Translations {
		if i != 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.Text)
		if t.MeansJoined != "" {
			sb.WriteString(" (")
			sb.WriteString(t.MeansJoined)
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// Share is the subject/body pair used when sharing a result
type Share struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
