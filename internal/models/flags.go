package models

import "strings"

// FilterFlags is the bitmask sent as the "flags" lookup parameter
type FilterFlags int

const (
	FlagNone      FilterFlags = 0x0
	FlagFamily    FilterFlags = 0x1
	FlagShortPos  FilterFlags = 0x2
	FlagMorpho    FilterFlags = 0x4
	FlagPosFilter FilterFlags = 0x8

	flagsMask = FlagFamily | FlagShortPos | FlagMorpho | FlagPosFilter
)

var flagNames = []struct {
	flag FilterFlags
	name string
}{
	{FlagFamily, "family"},
	{FlagShortPos, "short_pos"},
	{FlagMorpho, "morpho"},
	{FlagPosFilter, "pos_filter"},
}

// Has reports whether every bit of f2 is set in f
func (f FilterFlags) Has(f2 FilterFlags) bool {
	return f&f2 == f2
}

// Valid reports whether f only uses known bits
func (f FilterFlags) Valid() bool {
	return f&^flagsMask == 0
}

func (f FilterFlags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Settings are the user preferences that shape lookups and sharing
type Settings struct {
	ReverseLookup        bool        `json:"reverse_lookup"`
	IncludeTranscription bool        `json:"include_transcription"`
	Flags                FilterFlags `json:"flags"`
}

// DefaultSettings returns the preferences used on first run
func DefaultSettings() Settings {
	return Settings{
		ReverseLookup: true,
		Flags:         FlagFamily,
	}
}
