package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehmann314159/dictlookup/internal/models"
)

func resultFor(text, transcription string, translations ...string) *models.Result {
	def := models.Definition{Text: text, Transcription: transcription}
	for _, tr := range translations {
		def.Translations = append(def.Translations, translation(tr))
	}
	return Normalize([]models.Definition{def})
}

func TestHistory_Record(t *testing.T) {
	h := NewHistory()

	assert.True(t, h.Record("time"))
	assert.True(t, h.Record("cat"))
	assert.False(t, h.Record("time"))

	assert.Equal(t, []string{"time", "cat"}, h.Entries())
	assert.Equal(t, 2, h.Len())
}

func TestHistory_Remember(t *testing.T) {
	h := NewHistory()

	h.Remember(models.Empty)
	h.Remember(nil)
	assert.Nil(t, h.LastResult())
	assert.Zero(t, h.Len())

	r := resultFor("Time", "", "время")
	h.Remember(r)

	assert.Same(t, r, h.LastResult())
	assert.Equal(t, []string{"Time"}, h.Entries())

	cached, ok := h.Cached("time")
	require.True(t, ok)
	assert.Same(t, r, cached)

	_, ok = h.Cached("cat")
	assert.False(t, ok)
}

func TestHistory_ClearKeepsLastResult(t *testing.T) {
	h := NewHistory()
	r := resultFor("time", "", "время")
	h.Remember(r)

	h.Clear()

	assert.Empty(t, h.Entries())
	assert.Same(t, r, h.LastResult())
	_, ok := h.Cached("time")
	assert.False(t, ok)
}

func TestHistory_Restore(t *testing.T) {
	h := NewHistory()
	h.Record("old")

	last := resultFor("cat", "", "кошка")
	h.Restore([]string{"time", "cat", "time"}, last)

	assert.Equal(t, []string{"time", "cat"}, h.Entries())
	assert.Same(t, last, h.LastResult())
	_, ok := h.Cached("CAT")
	assert.True(t, ok)

	h.Restore(nil, models.Empty)
	assert.Nil(t, h.LastResult())
}

func TestHistory_Share(t *testing.T) {
	tests := []struct {
		name                 string
		transcription        string
		includeTranscription bool
		wantSubject          string
	}{
		{"with transcription", "taɪm", true, "time [taɪm]"},
		{"transcription disabled", "taɪm", false, "time"},
		{"transcription unknown", "", true, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory()
			_, ok := h.Share(tt.includeTranscription)
			assert.False(t, ok)

			h.Remember(resultFor("time", tt.transcription, "время", "час"))

			share, ok := h.Share(tt.includeTranscription)
			require.True(t, ok)
			assert.Equal(t, tt.wantSubject, share.Subject)
			assert.Equal(t, "время\nчас", share.Body)
		})
	}
}

func TestHistory_ExportCSV(t *testing.T) {
	h := NewHistory()
	h.Record("time")
	h.Record("well, then")

	var buf bytes.Buffer
	require.NoError(t, h.ExportCSV(&buf))

	assert.Equal(t, "text\ntime\n\"well, then\"\n", buf.String())
}

func TestHistory_ImportCSV(t *testing.T) {
	h := NewHistory()
	h.Record("time")

	input := "id,Text\n1,cat\n2,time\n3,\n4,dog!\n5\n"
	result, err := h.ImportCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, []string{"time", "cat", "dog"}, h.Entries())

	_, err = h.ImportCSV(strings.NewReader("word\ncat\n"))
	assert.Error(t, err)

	_, err = h.ImportCSV(strings.NewReader(""))
	assert.Error(t, err)
}
