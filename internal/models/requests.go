package models

// GeneratedCard is one front/back pair as returned by the generator gateway.
type GeneratedCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// GeneratedCards is the fixed output schema the gateway must conform to.
type GeneratedCards struct {
	Cards []GeneratedCard `json:"cards"`
}

// NumCards is a pointer so an absent field (use the default count) can be
// told apart from an explicit 0 (rejected).
type GenerateDeckRequest struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
	NumCards    *int   `json:"num_cards"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Color       string `json:"color"`
}

type FromTextRequest struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	NumCards *int   `json:"num_cards"`
	Color    string `json:"color"`
}

type FromYouTubeRequest struct {
	Title    string `json:"title"`
	VideoID  string `json:"video_id"`
	NumCards *int   `json:"num_cards"`
	Color    string `json:"color"`
}

type ManualDeckRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Cards       []GeneratedCard `json:"cards"`
	Color       string          `json:"color"`
}

type UpdateDeckRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Color       *string `json:"color"`
}

type UpdateCardRequest struct {
	Front    *string `json:"front"`
	Back     *string `json:"back"`
	Mastered *bool   `json:"mastered"`
}

type StartStudyRequest struct {
	DeckID string `json:"deck_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}
