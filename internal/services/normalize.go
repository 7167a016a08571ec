package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lehmann314159/dictlookup/internal/models"
)

// joinDelimiter separates pre-joined means, synonyms and examples
const joinDelimiter = ", "

// ErrTooDeep is returned when a response nests translations deeper than
// examples carrying their own translations
var ErrTooDeep = errors.New("translations nested too deep")

// Normalize builds a Result from the definitions of a lookup response.
// An empty input yields models.Empty. Definition and translation order is preserved.
func Normalize(definitions []models.Definition) *models.Result {
	if len(definitions) == 0 {
		return models.Empty
	}

	result := &models.Result{
		Definitions:  definitions,
		Translations: []models.DecoratedTranslation{},
	}

	for _, d := range definitions {
		for _, t := range d.Translations {
			result.Translations = append(result.Translations, decorate(t))
		}
		if result.Text == "" && d.Text != "" {
			result.Text = d.Text
		}
		if result.Transcription == "" && d.Transcription != "" {
			result.Transcription = d.Transcription
		}
	}

	return result
}

func decorate(t models.Translation) models.DecoratedTranslation {
	examples := make([]string, 0, len(t.Examples))
	for _, ex := range t.Examples {
		examples = append(examples, ex.Text)
	}
	return models.DecoratedTranslation{
		Translation:    t,
		MeansJoined:    joinText(t.Means),
		SynonymsJoined: joinText(t.Synonyms),
		ExamplesJoined: strings.Join(examples, joinDelimiter),
	}
}

func joinText(attrs []models.Attribute) string {
	if len(attrs) == 0 {
		return ""
	}
	texts := make([]string, len(attrs))
	for i, a := range attrs {
		texts[i] = a.Text
	}
	return strings.Join(texts, joinDelimiter)
}

// ValidateDepth checks that only examples carry nested translations and that
// those nested translations are leaves.
func ValidateDepth(definitions []models.Definition) error {
	for i, d := range definitions {
		for j, t := range d.Translations {
			if len(t.Translations) > 0 {
				return fmt.Errorf("def[%d].tr[%d]: translation carries translations: %w", i, j, ErrTooDeep)
			}
			for k, ex := range t.Examples {
				if len(ex.Examples) > 0 {
					return fmt.Errorf("def[%d].tr[%d].ex[%d]: example carries examples: %w", i, j, k, ErrTooDeep)
				}
				for _, nested := range ex.Translations {
					if len(nested.Examples) > 0 || len(nested.Translations) > 0 {
						return fmt.Errorf("def[%d].tr[%d].ex[%d]: example translation is not a leaf: %w", i, j, k, ErrTooDeep)
					}
				}
			}
		}
	}
	return nil
}
