package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lehmann314159/dictlookup/internal/models"
)

// History keeps the queried headwords of a session, the results they
// produced and the most recent successful result.
type History struct {
	mu      sync.RWMutex
	entries []string
	seen    map[string]bool
	results map[string]*models.Result
	last    *models.Result
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{
		seen:    make(map[string]bool),
		results: make(map[string]*models.Result),
	}
}

// cacheKey is the result cache key for a headword or query
func cacheKey(text string) string {
	return strings.ToLower(text)
}

// Record appends text to the log unless it is already present.
// It reports whether the log changed.
func (h *History) Record(text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.record(text)
}

func (h *History) record(text string) bool {
	if h.seen[text] {
		return false
	}
	h.seen[text] = true
	h.entries = append(h.entries, text)
	return true
}

// Remember stores a non-empty result as the last result, caches it and
// records its headword. Empty results are ignored.
func (h *History) Remember(result *models.Result) {
	if result.IsEmpty() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = result
	h.results[cacheKey(result.Text)] = result
	h.record(result.Text)
}

// Cached returns a previously remembered result whose headword matches text case-insensitively
func (h *History) Cached(text string) (*models.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.results[cacheKey(text)]
	return r, ok
}

// Entries returns the log in insertion order
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string{}, h.entries...)
}

// Len returns the number of logged headwords
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear empties the log and the result cache. The last result is kept.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.seen = make(map[string]bool)
	h.results = make(map[string]*models.Result)
}

// LastResult returns the most recent successful result, or nil
func (h *History) LastResult() *models.Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Restore replaces the log and the last result with previously saved state
func (h *History) Restore(entries []string, last *models.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.seen = make(map[string]bool)
	h.results = make(map[string]*models.Result)
	for _, e := range entries {
		h.record(e)
	}

	h.last = nil
	if !last.IsEmpty() {
		h.last = last
		h.results[cacheKey(last.Text)] = last
	}
}

// Share renders the last result for sharing. The subject is the headword,
// followed by the transcription in brackets when requested and known.
func (h *History) Share(includeTranscription bool) (models.Share, bool) {
	last := h.LastResult()
	if last == nil {
		return models.Share{}, false
	}

	subject := last.Text
	if includeTranscription && last.Transcription != "" {
		subject += " [" + last.Transcription + "]"
	}
	return models.Share{Subject: subject, Body: last.String()}, true
}

// ImportResult contains the results of a CSV import operation
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV appends the headwords of a CSV with a "text" column to the log.
// Entries already present are skipped.
func (h *History) ImportCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	textCol := -1
	for i, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) == "text" {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("missing required column: text")
	}

	result := &ImportResult{}
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			result.Skipped++
			continue
		}

		var text string
		if textCol < len(record) {
			text = Sanitize(record[textCol])
		}
		if text == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing text", lineNum))
			result.Skipped++
			continue
		}

		if !h.Record(text) {
			result.Skipped++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ExportCSV writes the log as CSV with a single text column
func (h *History) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"text"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, text := range h.Entries() {
		if err := writer.Write([]string{text}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
