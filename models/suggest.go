package models

type SuggestPostRequest struct {
	Text string `json:"text"`
	TopN int    `json:"top_n,omitempty"`
}

type SuggestPostResponse struct {
	Keywords []KeywordSuggestion `json:"keywords"`
}

type KeywordSuggestion struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}
