package services

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/lehmann314159/dictlookup/internal/models"
)

// ErrIndexOutOfRange is returned when a selection index is outside the directory
var ErrIndexOutOfRange = errors.New("language index out of range")

// ErrDirectoryEmpty is returned when selecting from a directory that was never loaded
var ErrDirectoryEmpty = errors.New("language directory is empty")

// LanguageNamer resolves the display name of a language code
type LanguageNamer func(code string) string

// NewLanguageNamer returns a namer producing names localized to uiLanguage,
// with the first letter upper-cased the way that locale does it.
// Codes without a known name are returned unchanged.
func NewLanguageNamer(uiLanguage string) LanguageNamer {
	ui := language.Make(uiLanguage)
	namer := display.Tags(ui)

	return func(code string) string {
		tag, err := language.Parse(code)
		if err != nil {
			return code
		}
		name := namer.Name(tag)
		if name == "" {
			return code
		}
		// casers are stateful, so one per call
		first, size := utf8.DecodeRuneInString(name)
		return cases.Upper(ui).String(string(first)) + name[size:]
	}
}

// BuildFromPairs turns "src-dst" pair strings into a list of unique languages,
// in first-seen order. Entries without a separator are skipped.
func BuildFromPairs(pairs []string, namer LanguageNamer) []models.Language {
	seen := make(map[string]bool)
	langs := make([]models.Language, 0, len(pairs))

	for _, pair := range pairs {
		source, dest, ok := strings.Cut(pair, "-")
		if !ok {
			continue
		}
		for _, code := range []string{source, dest} {
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			langs = append(langs, models.Language{Code: code, Name: namer(code)})
		}
	}

	return langs
}

// Directory holds the available languages and the selected source and
// destination. It is safe for concurrent use.
type Directory struct {
	mu     sync.RWMutex
	langs  []models.Language
	source string
	dest   string
	locale language.Tag
}

// NewDirectory creates an empty directory sorting names by the rules of uiLanguage
func NewDirectory(uiLanguage string) *Directory {
	return &Directory{locale: language.Make(uiLanguage)}
}

// Replace swaps in a new language list. Selections and favorite marks
// survive when their codes are still present.
func (d *Directory) Replace(langs []models.Language) {
	d.mu.Lock()
	defer d.mu.Unlock()

	favorites := make(map[string]bool)
	for _, l := range d.langs {
		if l.Favorite {
			favorites[l.Code] = true
		}
	}

	d.langs = append([]models.Language(nil), langs...)
	for i := range d.langs {
		if favorites[d.langs[i].Code] {
			d.langs[i].Favorite = true
		}
	}
	if d.indexOf(d.source) < 0 {
		d.source = ""
	}
	if d.indexOf(d.dest) < 0 {
		d.dest = ""
	}
}

// Sort orders the directory by name, stable, using locale-aware comparison
func (d *Directory) Sort() {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := collate.New(d.locale)
	sort.SliceStable(d.langs, func(i, j int) bool {
		return c.CompareString(d.langs[i].Name, d.langs[j].Name) < 0
	})
}

// Languages returns a copy of the directory in its current order
func (d *Directory) Languages() []models.Language {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Language(nil), d.langs...)
}

// Len returns the number of languages
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.langs)
}

// Source returns the selected source language
func (d *Directory) Source() (models.Language, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookup(d.source)
}

// Dest returns the selected destination language
func (d *Directory) Dest() (models.Language, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookup(d.dest)
}

// SourceIndex returns the position of the source language, or -1
func (d *Directory) SourceIndex() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexOf(d.source)
}

// DestIndex returns the position of the destination language, or -1
func (d *Directory) DestIndex() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexOf(d.dest)
}

// SetSource selects the source by position and reports whether it changed
func (d *Directory) SetSource(index int) (bool, error) {
	return d.setByIndex(&d.source, index)
}

// SetDest selects the destination by position and reports whether it changed
func (d *Directory) SetDest(index int) (bool, error) {
	return d.setByIndex(&d.dest, index)
}

// SetSourceByCode selects the source by code, falling back to the first language
func (d *Directory) SetSourceByCode(code string) (models.Language, error) {
	return d.setByCode(&d.source, code)
}

// SetDestByCode selects the destination by code, falling back to the first language
func (d *Directory) SetDestByCode(code string) (models.Language, error) {
	return d.setByCode(&d.dest, code)
}

// Swap exchanges source and destination unless they are the same language
func (d *Directory) Swap() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.source == d.dest {
		return false
	}
	d.source, d.dest = d.dest, d.source
	return true
}

// ToggleFavorite flips the favorite mark of the language at index
func (d *Directory) ToggleFavorite(index int) (models.Language, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.langs) {
		return models.Language{}, ErrIndexOutOfRange
	}
	d.langs[index].Favorite = !d.langs[index].Favorite
	return d.langs[index], nil
}

func (d *Directory) setByIndex(selected *string, index int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.langs) {
		return false, ErrIndexOutOfRange
	}
	code := d.langs[index].Code
	if *selected == code {
		return false, nil
	}
	*selected = code
	return true, nil
}

func (d *Directory) setByCode(selected *string, code string) (models.Language, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.langs) == 0 {
		return models.Language{}, ErrDirectoryEmpty
	}
	lang := d.langs[0]
	if i := d.indexOf(code); i >= 0 {
		lang = d.langs[i]
	}
	*selected = lang.Code
	return lang, nil
}

func (d *Directory) lookup(code string) (models.Language, bool) {
	if i := d.indexOf(code); i >= 0 {
		return d.langs[i], true
	}
	return models.Language{}, false
}

func (d *Directory) indexOf(code string) int {
	if code == "" {
		return -1
	}
	for i, l := range d.langs {
		if l.Code == code {
			return i
		}
	}
	return -1
}
