package api

import (
	"context"
	"sync"

	"github.com/lehmann314159/dictlookup/internal/models"
	"github.com/lehmann314159/dictlookup/internal/services"
)

// Event types published to polling clients
const (
	EventResult         = "result"
	EventEmpty          = "empty"
	EventError          = "error"
	EventLanguages      = "languages"
	EventLanguagesError = "languages_error"
)

// ErrorPayload describes a failed lookup or language load
type ErrorPayload struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Event is one session outcome, numbered in publication order
type Event struct {
	Seq       uint64                      `json:"seq"`
	Type      string                      `json:"type"`
	Query     string                      `json:"query,omitempty"`
	Result    *models.Result              `json:"result,omitempty"`
	Error     *ErrorPayload               `json:"error,omitempty"`
	Languages *services.LanguagesSnapshot `json:"languages,omitempty"`
}

// EventSink is a services.Sink that keeps the latest lookup event and the
// latest languages event for long-polling clients. Keeping them apart stops a
// language reload from hiding a lookup outcome that was not collected yet.
type EventSink struct {
	mu        sync.Mutex
	seq       uint64
	lookup    *Event
	languages *Event
	changed   chan struct{}
}

// NewEventSink creates an empty sink
func NewEventSink() *EventSink {
	return &EventSink{changed: make(chan struct{})}
}

func (s *EventSink) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	e.Seq = s.seq
	switch e.Type {
	case EventLanguages, EventLanguagesError:
		s.languages = &e
	default:
		s.lookup = &e
	}

	close(s.changed)
	s.changed = make(chan struct{})
}

// Seq returns the number of the latest event, 0 before the first one
func (s *EventSink) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// next returns the oldest kept event newer than after. Callers hold mu.
func (s *EventSink) next(after uint64) *Event {
	var found *Event
	for _, e := range []*Event{s.lookup, s.languages} {
		if e == nil || e.Seq <= after {
			continue
		}
		if found == nil || e.Seq < found.Seq {
			found = e
		}
	}
	return found
}

// Wait blocks until an event newer than after exists and returns the oldest
// such event still kept, so a client advancing after to each returned Seq
// sees both the latest lookup and the latest languages outcome.
// It returns false when ctx ends first.
func (s *EventSink) Wait(ctx context.Context, after uint64) (Event, bool) {
	for {
		s.mu.Lock()
		if e := s.next(after); e != nil {
			event := *e
			s.mu.Unlock()
			return event, true
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return Event{}, false
		}
	}
}

func (s *EventSink) OnResult(query string, result *models.Result) {
	s.publish(Event{Type: EventResult, Query: query, Result: result})
}

func (s *EventSink) OnEmptyResult(query string) {
	s.publish(Event{Type: EventEmpty, Query: query})
}

func (s *EventSink) OnError(err *services.LookupError) {
	s.publish(Event{
		Type:  EventError,
		Query: err.Query,
		Error: &ErrorPayload{Category: string(err.Category), Message: err.Category.Message()},
	})
}

func (s *EventSink) OnLanguages(snapshot services.LanguagesSnapshot) {
	s.publish(Event{Type: EventLanguages, Languages: &snapshot})
}

func (s *EventSink) OnLanguagesError(err error) {
	s.publish(Event{
		Type:  EventLanguagesError,
		Error: &ErrorPayload{Category: string(services.Classify(err)), Message: err.Error()},
	})
}
