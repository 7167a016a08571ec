package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehmann314159/dictlookup/internal/models"
)

func attrs(texts ...string) []models.Attribute {
	out := make([]models.Attribute, len(texts))
	for i, t := range texts {
		out[i] = models.Attribute{Text: t}
	}
	return out
}

func translation(text string) models.Translation {
	return models.Translation{Attribute: models.Attribute{Text: text}}
}

func TestNormalize_Empty(t *testing.T) {
	assert.Same(t, models.Empty, Normalize(nil))
	assert.Same(t, models.Empty, Normalize([]models.Definition{}))
	assert.True(t, Normalize(nil).IsEmpty())
}

func TestNormalize(t *testing.T) {
	first := translation("время")
	first.Means = attrs("timing", "period")
	first.Synonyms = attrs("раз", "срок")
	first.Examples = []models.Translation{translation("prehistoric time"), translation("hard times")}

	defs := []models.Definition{
		{Text: "time", PartOfSpeech: "noun", Translations: []models.Translation{first, translation("час")}},
		{Text: "time", PartOfSpeech: "verb", Transcription: "taɪm", Translations: []models.Translation{translation("приурочивать")}},
	}

	result := Normalize(defs)

	require.False(t, result.IsEmpty())
	assert.Equal(t, "time", result.Text)
	assert.Equal(t, "taɪm", result.Transcription)
	assert.Equal(t, defs, result.Definitions)

	require.Len(t, result.Translations, 3)
	assert.Equal(t, "время", result.Translations[0].Text)
	assert.Equal(t, "timing, period", result.Translations[0].MeansJoined)
	assert.Equal(t, "раз, срок", result.Translations[0].SynonymsJoined)
	assert.Equal(t, "prehistoric time, hard times", result.Translations[0].ExamplesJoined)
	assert.Equal(t, "час", result.Translations[1].Text)
	assert.Empty(t, result.Translations[1].MeansJoined)
	assert.Equal(t, "приурочивать", result.Translations[2].Text)

	assert.Equal(t, "время (timing, period)\nчас\nприурочивать", result.String())
}

func TestNormalize_FirstNonEmptyText(t *testing.T) {
	defs := []models.Definition{
		{Translations: []models.Translation{translation("a")}},
		{Text: "second", Translations: []models.Translation{translation("b")}},
	}

	result := Normalize(defs)
	assert.Equal(t, "second", result.Text)
	assert.Empty(t, result.Transcription)
}

func TestValidateDepth(t *testing.T) {
	example := translation("prehistoric time")
	example.Translations = []models.Translation{translation("доисторическое время")}
	valid := translation("время")
	valid.Examples = []models.Translation{example}

	nestedTr := translation("время")
	nestedTr.Translations = []models.Translation{translation("раз")}

	deepExample := translation("prehistoric time")
	deepExample.Examples = []models.Translation{translation("x")}
	withDeepExample := translation("время")
	withDeepExample.Examples = []models.Translation{deepExample}

	nonLeaf := translation("доисторическое время")
	nonLeaf.Translations = []models.Translation{translation("x")}
	exampleWithNonLeaf := translation("prehistoric time")
	exampleWithNonLeaf.Translations = []models.Translation{nonLeaf}
	withNonLeaf := translation("время")
	withNonLeaf.Examples = []models.Translation{exampleWithNonLeaf}

	tests := []struct {
		name    string
		tr      models.Translation
		wantErr bool
	}{
		{"example with translations", valid, false},
		{"translation with translations", nestedTr, true},
		{"example with examples", withDeepExample, true},
		{"example translation not a leaf", withNonLeaf, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDepth([]models.Definition{{Text: "time", Translations: []models.Translation{tt.tr}}})
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrTooDeep), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
