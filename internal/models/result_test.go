package models

import "testing"

func TestResult_IsEmpty(t *testing.T) {
	var nilResult *Result
	if !nilResult.IsEmpty() {
		t.Error("nil result should be empty")
	}
	if !Empty.IsEmpty() {
		t.Error("Empty should be empty")
	}

	r := &Result{Definitions: []Definition{{Text: "cat"}}}
	if r.IsEmpty() {
		t.Error("result with a definition should not be empty")
	}
}

func TestResult_Equal(t *testing.T) {
	a := &Result{Text: "run", Transcription: "rʌn"}
	b := &Result{Text: "run"}
	c := &Result{Text: "ran"}

	if !a.Equal(b) {
		t.Error("results with the same headword should be equal")
	}
	if a.Equal(c) {
		t.Error("results with different headwords should differ")
	}
	if a.Equal(nil) {
		t.Error("result should not equal nil")
	}
}

func TestResult_String(t *testing.T) {
	r := &Result{
		Translations: []DecoratedTranslation{
			{Translation: Translation{Attribute: Attribute{Text: "кот"}}, MeansJoined: "cat, tomcat"},
			{Translation: Translation{Attribute: Attribute{Text: "кошка"}}},
		},
	}

	want := "кот (cat, tomcat)\nкошка"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFilterFlags(t *testing.T) {
	tests := []struct {
		flags FilterFlags
		valid bool
		str   string
	}{
		{FlagNone, true, "none"},
		{FlagFamily, true, "family"},
		{FlagFamily | FlagMorpho, true, "family|morpho"},
		{FlagFamily | FlagShortPos | FlagMorpho | FlagPosFilter, true, "family|short_pos|morpho|pos_filter"},
		{0x10, false, ""},
	}

	for _, tt := range tests {
		if got := tt.flags.Valid(); got != tt.valid {
			t.Errorf("%d.Valid() = %v, want %v", tt.flags, got, tt.valid)
		}
		if got := tt.flags.String(); got != tt.str {
			t.Errorf("%d.String() = %q, want %q", tt.flags, got, tt.str)
		}
	}
}
