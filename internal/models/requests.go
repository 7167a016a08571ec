package models

// LookupRequest is the body of a lookup submission
type LookupRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// SelectLanguageRequest selects a language by its position in the directory
type SelectLanguageRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}
