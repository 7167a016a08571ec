package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehmann314159/dictlookup/internal/models"
	"github.com/lehmann314159/dictlookup/pkg/validator"
)

const (
	dictionaryAPIBaseURL = "https://dictionary.yandex.net/api/v1/dicservice.json"
	defaultTimeout       = 10 * time.Second
	maxErrorBodyBytes    = 64 << 10
)

// LookupParams are the parameters of a single lookup request
type LookupParams struct {
	Source string
	Dest   string
	Text   string
	UI     string
	Flags  models.FilterFlags
}

// Reverse returns the same request with source and destination swapped
func (p LookupParams) Reverse() LookupParams {
	p.Source, p.Dest = p.Dest, p.Source
	return p
}

// DictionaryClient talks to the remote dictionary API
type DictionaryClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewDictionaryClient creates a client for the public dictionary API
func NewDictionaryClient(apiKey string, log zerolog.Logger) *DictionaryClient {
	return &DictionaryClient{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: dictionaryAPIBaseURL,
		apiKey:  apiKey,
		log:     log.With().Str("component", "dictionary_client").Logger(),
	}
}

// NewDictionaryClientWithClient creates a client with a custom HTTP client and base URL
func NewDictionaryClientWithClient(client *http.Client, baseURL, apiKey string, log zerolog.Logger) *DictionaryClient {
	return &DictionaryClient{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log.With().Str("component", "dictionary_client").Logger(),
	}
}

// Lookup fetches the definitions of p.Text for the p.Source-p.Dest pair.
// A response without definitions yields an empty, non-nil slice.
func (c *DictionaryClient) Lookup(ctx context.Context, p LookupParams) ([]models.Definition, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("lang", models.LanguagePair(p.Source, p.Dest))
	query.Set("text", p.Text)
	query.Set("ui", p.UI)
	query.Set("flags", strconv.Itoa(int(p.Flags)))

	var resp models.LookupResponse
	if err := c.get(ctx, "lookup", query, &resp); err != nil {
		return nil, err
	}

	if err := validator.ValidateStruct(resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := ValidateDepth(resp.Definitions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if resp.Definitions == nil {
		return []models.Definition{}, nil
	}
	return resp.Definitions, nil
}

// Languages fetches the supported "src-dst" language pairs
func (c *DictionaryClient) Languages(ctx context.Context) ([]string, error) {
	var pairs []string
	if err := c.get(ctx, "getLangs", url.Values{"key": {c.apiKey}}, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// get performs a GET request and decodes a 2xx JSON body into out
func (c *DictionaryClient) get(ctx context.Context, method string, query url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, method, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrNoConnection, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("dictionary API response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readServerError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return fmt.Errorf("%w: failed to read body: %w", ErrNoConnection, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrMalformedResponse, err)
	}

	return nil
}

// readServerError builds a ServerError, taking code and message from the body when present
func readServerError(resp *http.Response) error {
	serverErr := &ServerError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err == nil && len(body) > 0 {
		var payload models.ServerErrorBody
		if json.Unmarshal(body, &payload) == nil {
			serverErr.Code = payload.Code
			serverErr.Message = payload.Message
		}
	}

	return serverErr
}
