package models

// Attribute is the shared shape of every lexical item returned by the dictionary
// API: translations, synonyms, means and examples all carry these fields.
type Attribute struct {
	Text         string `json:"text" validate:"required"`
	PartOfSpeech string `json:"pos,omitempty"`
	Quantity     string `json:"num,omitempty"`
	Gender       string `json:"gen,omitempty"`
	Aspect       string `json:"asp,omitempty"`
}

// Translation is a single translation of a headword.
// Examples may carry their own translations in Translations; nothing below
// that level is accepted (see services.ValidateDepth).
type Translation struct {
	Attribute
	Synonyms     []Attribute   `json:"syn,omitempty" validate:"dive"`
	Means        []Attribute   `json:"mean,omitempty" validate:"dive"`
	Examples     []Translation `json:"ex,omitempty" validate:"dive"`
	Translations []Translation `json:"tr,omitempty" validate:"dive"`
}

// Definition is one dictionary entry for a headword
type Definition struct {
	Text          string        `json:"text,omitempty"`
	PartOfSpeech  string        `json:"pos,omitempty"`
	Transcription string        `json:"ts,omitempty"`
	Translations  []Translation `json:"tr" validate:"dive"`
}

// LookupResponse is the top level object of a lookup response
type LookupResponse struct {
	Definitions []Definition `json:"def" validate:"dive"`
}

// ServerErrorBody is the body the API sends along with non-2xx statuses
type ServerErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
