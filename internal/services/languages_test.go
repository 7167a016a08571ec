package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehmann314159/dictlookup/internal/models"
)

func codeNamer(code string) string { return code }

func codes(langs []models.Language) []string {
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = l.Code
	}
	return out
}

func TestBuildFromPairs(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  []string
	}{
		{"dedup in first seen order", []string{"en-ru", "ru-en", "en-fr"}, []string{"en", "ru", "fr"}},
		{"malformed skipped", []string{"enru", "en-", "de-en"}, []string{"en", "de"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(BuildFromPairs(tt.pairs, codeNamer)))
		})
	}
}

func TestNewLanguageNamer(t *testing.T) {
	namer := NewLanguageNamer("en")

	assert.Equal(t, "Russian", namer("ru"))
	assert.Equal(t, "French", namer("fr"))
	assert.Equal(t, "!!", namer("!!"))
}

func newTestDirectory(t *testing.T, pairs ...string) *Directory {
	t.Helper()
	d := NewDirectory("en")
	d.Replace(BuildFromPairs(pairs, NewLanguageNamer("en")))
	return d
}

func TestDirectory_SetByCode(t *testing.T) {
	d := newTestDirectory(t, "en-ru", "en-es")

	lang, err := d.SetSourceByCode("en")
	require.NoError(t, err)
	assert.Equal(t, "en", lang.Code)

	// unknown code falls back to the first language
	lang, err = d.SetDestByCode("xx")
	require.NoError(t, err)
	assert.Equal(t, "en", lang.Code)

	_, err = NewDirectory("en").SetSourceByCode("en")
	assert.True(t, errors.Is(err, ErrDirectoryEmpty))
}

func TestDirectory_SetByIndex(t *testing.T) {
	d := newTestDirectory(t, "en-ru", "en-fr")

	changed, err := d.SetSource(1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, d.SourceIndex())

	changed, err = d.SetSource(1)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = d.SetDest(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = d.SetDest(-1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.Equal(t, -1, d.DestIndex())
}

func TestDirectory_Swap(t *testing.T) {
	d := newTestDirectory(t, "en-ru")
	d.SetSourceByCode("en")
	d.SetDestByCode("en")

	assert.False(t, d.Swap(), "swap of identical languages is a no-op")

	d.SetDestByCode("ru")
	assert.True(t, d.Swap())

	source, _ := d.Source()
	dest, _ := d.Dest()
	assert.Equal(t, "ru", source.Code)
	assert.Equal(t, "en", dest.Code)
}

func TestDirectory_SortKeepsSelection(t *testing.T) {
	d := newTestDirectory(t, "ru-en", "fr-de")
	d.SetSourceByCode("en")
	d.SetDestByCode("ru")

	d.Sort()

	assert.Equal(t, []string{"en", "fr", "de", "ru"}, codes(d.Languages()))
	assert.Equal(t, 0, d.SourceIndex())
	assert.Equal(t, 3, d.DestIndex())
}

func TestDirectory_ReplaceDropsMissingSelection(t *testing.T) {
	d := newTestDirectory(t, "en-ru")
	d.SetSourceByCode("ru")
	d.SetDestByCode("en")

	d.Replace(BuildFromPairs([]string{"en-fr"}, codeNamer))

	_, ok := d.Source()
	assert.False(t, ok)
	dest, ok := d.Dest()
	assert.True(t, ok)
	assert.Equal(t, "en", dest.Code)
}

func TestDirectory_ToggleFavorite(t *testing.T) {
	d := newTestDirectory(t, "en-ru")

	lang, err := d.ToggleFavorite(1)
	require.NoError(t, err)
	assert.True(t, lang.Favorite)
	assert.True(t, d.Languages()[1].Favorite)

	lang, err = d.ToggleFavorite(1)
	require.NoError(t, err)
	assert.False(t, lang.Favorite)

	_, err = d.ToggleFavorite(5)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDirectory_ReplaceKeepsFavorites(t *testing.T) {
	d := newTestDirectory(t, "en-ru")
	d.ToggleFavorite(1)

	d.Replace(BuildFromPairs([]string{"ru-en", "en-de"}, codeNamer))

	langs := d.Languages()
	assert.Equal(t, []string{"ru", "en", "de"}, codes(langs))
	assert.True(t, langs[0].Favorite)
	assert.False(t, langs[1].Favorite)
}
