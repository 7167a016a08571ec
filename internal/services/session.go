package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lehmann314159/dictlookup/internal/models"
	"github.com/lehmann314159/dictlookup/internal/repository"
)

const (
	defaultDebounce     = 600 * time.Millisecond
	defaultLanguagesTTL = 14 * 24 * time.Hour
	languagesFlightKey  = "languages"
)

// ErrSessionClosed is returned by operations on a closed session
var ErrSessionClosed = errors.New("session closed")

// ErrNoResult is returned when an operation needs a last result and there is none
var ErrNoResult = errors.New("no result yet")

// Transport is the dictionary API as seen by a session
type Transport interface {
	Lookup(ctx context.Context, p LookupParams) ([]models.Definition, error)
	Languages(ctx context.Context) ([]string, error)
}

// Sink receives the outcome of session operations.
// Calls are serialized and made while delivery is locked, so a Sink must not
// call Attach, Detach or LookupTranslation from within a callback.
type Sink interface {
	OnResult(query string, result *models.Result)
	OnEmptyResult(query string)
	OnError(err *LookupError)
	OnLanguages(snapshot LanguagesSnapshot)
	OnLanguagesError(err error)
}

// LanguagesSnapshot is the directory as handed to a sink
type LanguagesSnapshot struct {
	Languages   []models.Language `json:"languages"`
	SourceIndex int               `json:"source"`
	DestIndex   int               `json:"dest"`
	Ready       bool              `json:"ready"`
}

// QueryState is the state of the lookup stream
type QueryState int

const (
	StateIdle QueryState = iota
	StateDebouncing
	StateInFlight
)

func (s QueryState) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateInFlight:
		return "in_flight"
	default:
		return "idle"
	}
}

// SessionOptions configure a session
type SessionOptions struct {
	// UILanguage is the language results and language names are localized to
	UILanguage string
	// Debounce is the quiet period before a submitted query is looked up
	Debounce time.Duration
	// LanguagesTTL is how long a cached language list stays fresh
	LanguagesTTL time.Duration
	// Defaults are used for preferences that were never saved
	Defaults models.Settings
	// Clock drives debouncing and freshness checks; real time when nil
	Clock clockwork.Clock
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.UILanguage == "" {
		o.UILanguage = "en"
	}
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.LanguagesTTL <= 0 {
		o.LanguagesTTL = defaultLanguagesTTL
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Session owns the lookup pipeline of one user: the query stream, the
// language directory, history and preferences.
type Session struct {
	id        string
	transport Transport
	store     repository.Store
	log       zerolog.Logger
	opts      SessionOptions
	namer     LanguageNamer

	directory *Directory
	history   *History
	debouncer *Debouncer
	loads     singleflight.Group

	settingsMu sync.RWMutex
	settings   models.Settings

	ready     chan struct{}
	readyOnce sync.Once

	// deliverMu serializes delivery with supersession and sink changes.
	// gen identifies the only lookup allowed to deliver.
	deliverMu sync.Mutex
	gen       uint64
	active    bool
	sink      Sink
	cancel    context.CancelFunc
	closed    bool
	current   atomic.Uint64

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// Open creates a session and restores preferences, history and the last
// result from store. Languages are not loaded until LoadLanguages is called.
func Open(ctx context.Context, transport Transport, store repository.Store, log zerolog.Logger, opts SessionOptions) (*Session, error) {
	opts = opts.withDefaults()
	id := uuid.NewString()

	sessionCtx, stop := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		transport: transport,
		store:     store,
		log:       log.With().Str("component", "session").Str("session_id", id).Logger(),
		opts:      opts,
		namer:     NewLanguageNamer(opts.UILanguage),
		directory: NewDirectory(opts.UILanguage),
		history:   NewHistory(),
		settings:  opts.Defaults,
		ready:     make(chan struct{}),
		ctx:       sessionCtx,
		stop:      stop,
	}
	s.debouncer = NewDebouncer(opts.Clock, opts.Debounce, func(text string) { s.start(text) })

	if err := s.restore(ctx); err != nil {
		stop()
		return nil, err
	}

	s.log.Info().Str("ui", opts.UILanguage).Int("history", s.history.Len()).Msg("session opened")
	return s, nil
}

// ID identifies the session in logs
func (s *Session) ID() string {
	return s.id
}

// Attach sets the sink that receives results. It replaces any previous sink.
func (s *Session) Attach(sink Sink) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.sink = sink
}

// Detach removes the sink; no callbacks are made once it returns
func (s *Session) Detach() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.sink = nil
}

// Submit sanitizes raw and schedules it for lookup after the debounce period.
// It returns false when nothing is left after sanitizing or the session is closed.
func (s *Session) Submit(raw string) bool {
	text := Sanitize(raw)
	if text == "" {
		return false
	}
	return s.debouncer.Push(text)
}

// LookupTranslation looks up the text of translation index of the last result right away
func (s *Session) LookupTranslation(index int) error {
	last := s.history.LastResult()
	if last == nil {
		return ErrNoResult
	}
	if index < 0 || index >= len(last.Translations) {
		return fmt.Errorf("translation %d: %w", index, ErrIndexOutOfRange)
	}
	text := Sanitize(last.Translations[index].Text)
	if text == "" {
		return fmt.Errorf("translation %d has no text", index)
	}

	s.debouncer.Cancel()
	if !s.start(text) {
		return ErrSessionClosed
	}
	return nil
}

// State reports where the query stream currently is
func (s *Session) State() QueryState {
	s.deliverMu.Lock()
	active := s.active
	s.deliverMu.Unlock()

	switch {
	case active:
		return StateInFlight
	case s.debouncer.Pending():
		return StateDebouncing
	default:
		return StateIdle
	}
}

// start supersedes the running lookup, if any, and looks up text
func (s *Session) start(text string) bool {
	s.deliverMu.Lock()
	if s.closed {
		s.deliverMu.Unlock()
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.current.Store(gen)
	s.active = true
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.deliverMu.Unlock()

	go func() {
		defer s.wg.Done()
		defer cancel()
		defer s.finish(gen)
		s.run(ctx, gen, text)
	}()
	return true
}

func (s *Session) run(ctx context.Context, gen uint64, text string) {
	log := s.log.With().Uint64("gen", gen).Str("query", text).Logger()

	select {
	case <-s.ready:
	case <-ctx.Done():
		log.Debug().Msg("lookup dropped before languages were ready")
		return
	}

	if cached, ok := s.history.Cached(text); ok {
		log.Debug().Msg("lookup served from cache")
		s.deliver(gen, func() { s.history.Remember(cached) }, func(sink Sink) { sink.OnResult(text, cached) })
		return
	}

	source, okSource := s.directory.Source()
	dest, okDest := s.directory.Dest()
	if !okSource || !okDest {
		lerr := &LookupError{Query: text, Category: CategoryGeneric, Err: ErrLanguagesUnavailable}
		s.deliver(gen, nil, func(sink Sink) { sink.OnError(lerr) })
		return
	}

	settings := s.Settings()
	params := LookupParams{
		Source: source.Code,
		Dest:   dest.Code,
		Text:   text,
		UI:     s.opts.UILanguage,
		Flags:  settings.Flags,
	}

	start := time.Now()
	defs, err := s.transport.Lookup(ctx, params)
	if err == nil && len(defs) == 0 && settings.ReverseLookup && s.isCurrent(gen) {
		log.Debug().Msg("no definitions, trying reverse direction")
		defs, err = s.transport.Lookup(ctx, params.Reverse())
	}

	if err != nil {
		if isCancellation(err) || ctx.Err() != nil {
			log.Debug().Msg("lookup superseded")
			return
		}
		lerr := &LookupError{Query: text, Category: Classify(err), Err: err}
		log.Warn().Err(err).Str("category", string(lerr.Category)).Msg("lookup failed")
		s.deliver(gen, nil, func(sink Sink) { sink.OnError(lerr) })
		return
	}

	result := Normalize(defs)
	log.Debug().
		Int("translations", len(result.Translations)).
		Dur("took", time.Since(start)).
		Msg("lookup finished")

	if result.IsEmpty() {
		s.deliver(gen, nil, func(sink Sink) { sink.OnEmptyResult(text) })
		return
	}
	s.deliver(gen, func() { s.history.Remember(result) }, func(sink Sink) { sink.OnResult(text, result) })
}

// deliver runs apply and notifies the sink only if gen is still the current
// lookup. Supersession takes the same lock, so a superseded lookup can never
// deliver after start returned for its successor.
func (s *Session) deliver(gen uint64, apply func(), notify func(Sink)) bool {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if gen != s.gen || s.closed {
		return false
	}
	s.active = false
	if apply != nil {
		apply()
	}
	if s.sink != nil && notify != nil {
		notify(s.sink)
	}
	return true
}

func (s *Session) finish(gen uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if gen == s.gen {
		s.active = false
	}
}

func (s *Session) isCurrent(gen uint64) bool {
	return s.current.Load() == gen
}

// LoadLanguages loads the language directory in the background, from the
// store when the cached copy is fresh, otherwise from the dictionary API.
// The outcome is reported to the sink.
func (s *Session) LoadLanguages() {
	s.goLoad(false)
}

// ReloadLanguages fetches the language list from the dictionary API in the background
func (s *Session) ReloadLanguages() {
	s.goLoad(true)
}

func (s *Session) goLoad(force bool) {
	s.deliverMu.Lock()
	if s.closed {
		s.deliverMu.Unlock()
		return
	}
	s.wg.Add(1)
	s.deliverMu.Unlock()

	go func() {
		defer s.wg.Done()
		err := s.loadLanguages(s.ctx, force)

		s.deliverMu.Lock()
		defer s.deliverMu.Unlock()
		if s.closed || s.sink == nil {
			return
		}
		if err != nil {
			s.sink.OnLanguagesError(err)
			return
		}
		s.sink.OnLanguages(s.Languages())
	}()
}

// loadLanguages loads the directory unless it is already loaded; concurrent calls share one load
func (s *Session) loadLanguages(ctx context.Context, force bool) error {
	if !force && s.Ready() {
		return nil
	}
	_, err, _ := s.loads.Do(languagesFlightKey, func() (interface{}, error) {
		return nil, s.refreshLanguages(ctx, force)
	})
	return err
}

func (s *Session) refreshLanguages(ctx context.Context, force bool) error {
	var langs []models.Language
	fromCache := false

	if !force && s.languagesFresh(ctx) {
		cached, err := s.store.LoadLanguages(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("failed to read cached languages, purging")
			if err := s.store.PurgeLanguages(ctx); err != nil {
				s.log.Error().Err(err).Msg("failed to purge cached languages")
			}
		case len(cached) > 0:
			langs = cached
			fromCache = true
		}
	}

	if langs == nil {
		pairs, err := s.transport.Languages(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to fetch languages")
			return fmt.Errorf("%w: %w", ErrLanguagesUnavailable, err)
		}
		langs = BuildFromPairs(pairs, s.namer)
		if len(langs) == 0 {
			return fmt.Errorf("%w: no language pairs returned", ErrLanguagesUnavailable)
		}
	}

	s.directory.Replace(langs)
	if _, err := s.directory.SetSourceByCode(s.preference(ctx, repository.PrefSource, s.opts.UILanguage)); err != nil {
		return err
	}
	if _, err := s.directory.SetDestByCode(s.preference(ctx, repository.PrefDest, s.opts.UILanguage)); err != nil {
		return err
	}
	s.directory.Sort()

	if !fromCache {
		if err := s.saveLanguages(ctx); err != nil {
			s.log.Error().Err(err).Msg("failed to cache languages")
		} else {
			s.setPreference(ctx, repository.PrefLanguagesTimestamp, s.opts.Clock.Now().UTC().Format(time.RFC3339))
			s.setPreference(ctx, repository.PrefLanguagesLocale, s.opts.UILanguage)
		}
	}
	s.persistSelection(ctx)

	s.log.Info().Int("languages", s.directory.Len()).Bool("cached", fromCache).Msg("languages loaded")
	s.readyOnce.Do(func() { close(s.ready) })
	return nil
}

// languagesFresh reports whether the cached list may be used
func (s *Session) languagesFresh(ctx context.Context) bool {
	stamp, ok, err := s.store.GetPreference(ctx, repository.PrefLanguagesTimestamp)
	if err != nil || !ok {
		return false
	}
	updated, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		s.log.Warn().Err(err).Str("timestamp", stamp).Msg("bad languages timestamp")
		return false
	}
	if s.opts.Clock.Since(updated) >= s.opts.LanguagesTTL {
		return false
	}
	locale, ok, err := s.store.GetPreference(ctx, repository.PrefLanguagesLocale)
	return err == nil && ok && locale == s.opts.UILanguage
}

// Ready reports whether the language directory has been loaded
func (s *Session) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Languages returns a snapshot of the directory
func (s *Session) Languages() LanguagesSnapshot {
	return LanguagesSnapshot{
		Languages:   s.directory.Languages(),
		SourceIndex: s.directory.SourceIndex(),
		DestIndex:   s.directory.DestIndex(),
		Ready:       s.Ready(),
	}
}

// SetSource selects the source language by position and reports whether it changed
func (s *Session) SetSource(ctx context.Context, index int) (bool, error) {
	changed, err := s.directory.SetSource(index)
	if err != nil || !changed {
		return changed, err
	}
	lang, _ := s.directory.Source()
	return true, s.store.SetPreference(ctx, repository.PrefSource, lang.Code)
}

// SetDest selects the destination language by position and reports whether it changed
func (s *Session) SetDest(ctx context.Context, index int) (bool, error) {
	changed, err := s.directory.SetDest(index)
	if err != nil || !changed {
		return changed, err
	}
	lang, _ := s.directory.Dest()
	return true, s.store.SetPreference(ctx, repository.PrefDest, lang.Code)
}

// Swap exchanges source and destination unless they are the same language
func (s *Session) Swap(ctx context.Context) (bool, error) {
	if !s.directory.Swap() {
		return false, nil
	}
	source, _ := s.directory.Source()
	dest, _ := s.directory.Dest()
	if err := s.store.SetPreference(ctx, repository.PrefSource, source.Code); err != nil {
		return true, err
	}
	return true, s.store.SetPreference(ctx, repository.PrefDest, dest.Code)
}

// ToggleFavorite flips the favorite mark of a language and saves the directory
func (s *Session) ToggleFavorite(ctx context.Context, index int) (models.Language, error) {
	lang, err := s.directory.ToggleFavorite(index)
	if err != nil {
		return lang, err
	}
	return lang, s.saveLanguages(ctx)
}

// History returns the queried headwords in insertion order
func (s *Session) History() []string {
	return s.history.Entries()
}

// ClearHistory empties the history log
func (s *Session) ClearHistory() {
	s.history.Clear()
}

// ImportHistory merges the headwords of a CSV export into the history
func (s *Session) ImportHistory(r io.Reader) (*ImportResult, error) {
	return s.history.ImportCSV(r)
}

// ExportHistory writes the history as CSV
func (s *Session) ExportHistory(w io.Writer) error {
	return s.history.ExportCSV(w)
}

// LastResult returns the most recent successful result, or nil
func (s *Session) LastResult() *models.Result {
	return s.history.LastResult()
}

// Share renders the last result for sharing
func (s *Session) Share() (models.Share, bool) {
	return s.history.Share(s.Settings().IncludeTranscription)
}

// Settings returns the current preferences
func (s *Session) Settings() models.Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// UpdateSettings replaces and saves the preferences
func (s *Session) UpdateSettings(ctx context.Context, settings models.Settings) error {
	if !settings.Flags.Valid() {
		return fmt.Errorf("invalid search flags %d", settings.Flags)
	}

	s.settingsMu.Lock()
	s.settings = settings
	s.settingsMu.Unlock()

	prefs := map[string]string{
		repository.PrefLookupReverse:        strconv.FormatBool(settings.ReverseLookup),
		repository.PrefIncludeTranscription: strconv.FormatBool(settings.IncludeTranscription),
		repository.PrefSearchFlags:          strconv.Itoa(int(settings.Flags)),
	}
	for key, value := range prefs {
		if err := s.store.SetPreference(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the query stream, waits for background work and saves the
// directory, selections, history and last result.
func (s *Session) Close(ctx context.Context) error {
	s.deliverMu.Lock()
	if s.closed {
		s.deliverMu.Unlock()
		return nil
	}
	s.closed = true
	s.sink = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.deliverMu.Unlock()

	s.debouncer.Stop()
	s.stop()
	s.wg.Wait()

	var errs []error
	if s.Ready() {
		errs = append(errs, s.saveLanguages(ctx))
		s.persistSelection(ctx)
	}
	errs = append(errs, s.store.SaveHistory(ctx, s.history.Entries()))
	if last := s.history.LastResult(); last != nil {
		raw, err := json.Marshal(last.Definitions)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to encode last result: %w", err))
		} else {
			errs = append(errs, s.store.SetPreference(ctx, repository.PrefLastResult, string(raw)))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to save session state")
	} else {
		s.log.Info().Msg("session closed")
	}
	return err
}

// restore loads preferences, history and the last result saved by a previous session
func (s *Session) restore(ctx context.Context) error {
	settings := s.opts.Defaults
	if v, ok, err := s.store.GetPreference(ctx, repository.PrefLookupReverse); err != nil {
		return err
	} else if ok {
		settings.ReverseLookup, _ = strconv.ParseBool(v)
	}
	if v, ok, err := s.store.GetPreference(ctx, repository.PrefIncludeTranscription); err != nil {
		return err
	} else if ok {
		settings.IncludeTranscription, _ = strconv.ParseBool(v)
	}
	if v, ok, err := s.store.GetPreference(ctx, repository.PrefSearchFlags); err != nil {
		return err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil && models.FilterFlags(n).Valid() {
			settings.Flags = models.FilterFlags(n)
		}
	}
	s.settings = settings

	entries, err := s.store.LoadHistory(ctx)
	if err != nil {
		return err
	}

	var last *models.Result
	if raw, ok, err := s.store.GetPreference(ctx, repository.PrefLastResult); err != nil {
		return err
	} else if ok {
		var defs []models.Definition
		if err := json.Unmarshal([]byte(raw), &defs); err != nil {
			s.log.Warn().Err(err).Msg("dropping unreadable last result")
		} else if err := ValidateDepth(defs); err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed last result")
		} else {
			last = Normalize(defs)
		}
	}

	s.history.Restore(entries, last)
	return nil
}

func (s *Session) saveLanguages(ctx context.Context) error {
	return s.store.SaveLanguages(ctx, s.directory.Languages())
}

func (s *Session) persistSelection(ctx context.Context) {
	if lang, ok := s.directory.Source(); ok {
		s.setPreference(ctx, repository.PrefSource, lang.Code)
	}
	if lang, ok := s.directory.Dest(); ok {
		s.setPreference(ctx, repository.PrefDest, lang.Code)
	}
}

// preference returns the stored value of key, or fallback when unset or unreadable
func (s *Session) preference(ctx context.Context, key, fallback string) string {
	v, ok, err := s.store.GetPreference(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to read preference")
		return fallback
	}
	if !ok || v == "" {
		return fallback
	}
	return v
}

func (s *Session) setPreference(ctx context.Context, key, value string) {
	if err := s.store.SetPreference(ctx, key, value); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to save preference")
	}
}
