package models

type GeneratePostRequest struct {
	// Text is the product description, in English or Polish.
	Text string `json:"text"`

	// Variant selects the prompt. Empty uses the server default.
	Variant string `json:"variant,omitempty"`

	// Keywords fill the keyword slot of variants that have one.
	Keywords []string `json:"keywords,omitempty"`

	// Suggest adds keyword suggestions to the response.
	Suggest bool `json:"suggest,omitempty"`
	TopN    int  `json:"top_n,omitempty"`
}

type GeneratePostResponse struct {
	Variant   string `json:"variant"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`

	Keywords        []KeywordSuggestion `json:"keywords,omitempty"`
	SuggestionError string              `json:"suggestion_error,omitempty"`
}
