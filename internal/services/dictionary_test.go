package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lehmann314159/dictlookup/internal/models"
)

func TestDictionaryClient_Lookup(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   string
		mockStatusCode int
		wantErr        error
		wantCategory   ErrorCategory
		wantDefs       int
		wantText       string
	}{
		{
			name: "successful lookup",
			mockResponse: `{"head":{},"def":[{
				"text":"time","pos":"noun","ts":"taɪm",
				"tr":[{"text":"время","pos":"noun","gen":"ср",
					"syn":[{"text":"раз","pos":"noun"}],
					"mean":[{"text":"timing"}],
					"ex":[{"text":"prehistoric time","tr":[{"text":"доисторическое время"}]}]}]
			}]}`,
			mockStatusCode: http.StatusOK,
			wantDefs:       1,
			wantText:       "time",
		},
		{
			name:           "no definitions",
			mockResponse:   `{"head":{},"def":[]}`,
			mockStatusCode: http.StatusOK,
		},
		{
			name:           "missing def field",
			mockResponse:   `{"head":{}}`,
			mockStatusCode: http.StatusOK,
		},
		{
			name:           "language not supported",
			mockResponse:   `{"code":501,"message":"The specified language is not supported"}`,
			mockStatusCode: http.StatusNotImplemented,
			wantCategory:   CategoryLanguageNotSupported,
		},
		{
			name:           "text too long without body",
			mockStatusCode: http.StatusRequestEntityTooLarge,
			wantCategory:   CategoryRequestTooLong,
		},
		{
			name:           "invalid key",
			mockResponse:   `{"code":401,"message":"API key is invalid"}`,
			mockStatusCode: http.StatusForbidden,
			wantCategory:   CategoryGeneric,
		},
		{
			name:           "not json",
			mockResponse:   `<html>oops</html>`,
			mockStatusCode: http.StatusOK,
			wantErr:        ErrMalformedResponse,
		},
		{
			name:           "translation without text",
			mockResponse:   `{"def":[{"text":"time","tr":[{"pos":"noun"}]}]}`,
			mockStatusCode: http.StatusOK,
			wantErr:        ErrMalformedResponse,
		},
		{
			name:           "translations nested too deep",
			mockResponse:   `{"def":[{"text":"time","tr":[{"text":"время","tr":[{"text":"раз"}]}]}]}`,
			mockStatusCode: http.StatusOK,
			wantErr:        ErrTooDeep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.mockStatusCode)
				w.Write([]byte(tt.mockResponse))
			}))
			defer server.Close()

			client := NewDictionaryClientWithClient(server.Client(), server.URL, "key", zerolog.Nop())

			got, err := client.Lookup(context.Background(), LookupParams{Source: "en", Dest: "ru", Text: "time", UI: "en"})

			if tt.wantCategory != "" {
				if err == nil {
					t.Fatalf("Lookup() expected error")
				}
				var serverErr *ServerError
				if !errors.As(err, &serverErr) {
					t.Fatalf("Lookup() error = %v, want *ServerError", err)
				}
				if got := Classify(err); got != tt.wantCategory {
					t.Errorf("Classify() = %v, want %v", got, tt.wantCategory)
				}
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Lookup() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() unexpected error = %v", err)
			}

			if got == nil {
				t.Fatal("Lookup() returned nil definitions")
			}
			if len(got) != tt.wantDefs {
				t.Fatalf("Lookup() returned %d definitions, want %d", len(got), tt.wantDefs)
			}
			if tt.wantDefs > 0 && got[0].Text != tt.wantText {
				t.Errorf("Lookup() text = %v, want %v", got[0].Text, tt.wantText)
			}
		})
	}
}

func TestDictionaryClient_LookupQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"def":[]}`))
	}))
	defer server.Close()

	client := NewDictionaryClientWithClient(server.Client(), server.URL, "secret", zerolog.Nop())
	params := LookupParams{Source: "en", Dest: "ru", Text: "hello world", UI: "de", Flags: models.FlagFamily | models.FlagMorpho}

	if _, err := client.Lookup(context.Background(), params.Reverse()); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if gotPath != "/lookup" {
		t.Errorf("path = %v, want /lookup", gotPath)
	}
	want := map[string]string{
		"key":   "secret",
		"lang":  "ru-en",
		"text":  "hello world",
		"ui":    "de",
		"flags": "5",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestDictionaryClient_Languages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getLangs" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`["en-ru","ru-en","en-fr"]`))
	}))
	defer server.Close()

	client := NewDictionaryClientWithClient(server.Client(), server.URL, "key", zerolog.Nop())

	got, err := client.Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages() error = %v", err)
	}
	if len(got) != 3 || got[0] != "en-ru" {
		t.Errorf("Languages() = %v", got)
	}
}

func TestDictionaryClient_NoConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewDictionaryClientWithClient(http.DefaultClient, url, "key", zerolog.Nop())

	_, err := client.Lookup(context.Background(), LookupParams{Source: "en", Dest: "ru", Text: "time"})
	if !errors.Is(err, ErrNoConnection) {
		t.Fatalf("Lookup() error = %v, want ErrNoConnection", err)
	}
	if got := Classify(err); got != CategoryNoConnection {
		t.Errorf("Classify() = %v, want %v", got, CategoryNoConnection)
	}
}

func TestDictionaryClient_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewDictionaryClientWithClient(server.Client(), server.URL, "key", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Lookup(ctx, LookupParams{Source: "en", Dest: "ru", Text: "time"})
	if !isCancellation(err) {
		t.Fatalf("Lookup() error = %v, want cancellation", err)
	}
}

func TestNewDictionaryClient(t *testing.T) {
	client := NewDictionaryClient("key", zerolog.Nop())

	if client == nil {
		t.Fatal("NewDictionaryClient() returned nil")
	}
	if client.baseURL != dictionaryAPIBaseURL {
		t.Errorf("NewDictionaryClient() baseURL = %v, want %v", client.baseURL, dictionaryAPIBaseURL)
	}
}
