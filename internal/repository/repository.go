package repository

import (
	"context"

	"github.com/lehmann314159/dictlookup/internal/models"
)

// Preference keys
const (
	PrefSource               = "source"
	PrefDest                 = "dest"
	PrefLanguagesTimestamp   = "langs_timestamp"
	PrefLanguagesLocale      = "langs_locale"
	PrefLookupReverse        = "lookup_reverse"
	PrefIncludeTranscription = "include_transcription"
	PrefSearchFlags          = "search_flags"
	PrefLastResult           = "last_result"
)

// Store defines the persisted state of a dictionary session
type Store interface {
	// GetPreference returns the value stored under key and whether it exists
	GetPreference(ctx context.Context, key string) (string, bool, error)

	// SetPreference stores value under key, replacing any previous value
	SetPreference(ctx context.Context, key, value string) error

	// LoadLanguages returns the cached language directory in saved order
	LoadLanguages(ctx context.Context) ([]models.Language, error)

	// SaveLanguages replaces the cached language directory
	SaveLanguages(ctx context.Context, langs []models.Language) error

	// PurgeLanguages drops the cached language directory and its freshness timestamp
	PurgeLanguages(ctx context.Context) error

	// LoadHistory returns the saved history log in insertion order
	LoadHistory(ctx context.Context) ([]string, error)

	// SaveHistory replaces the saved history log
	SaveHistory(ctx context.Context, entries []string) error
}
