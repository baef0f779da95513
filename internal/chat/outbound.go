package chat

import "sync"

// Outbound is the reply channel for one conversation turn. Sends are
// fire-and-forget.
type Outbound interface {
	SendReply(text string)
	SendSuggestions(suggestions []string)
	SendConfirmationRequest(text string, payload ConfirmationPayload)
}

// ConfirmationPayload must be echoed back verbatim to confirm an action.
type ConfirmationPayload struct {
	Action       string  `json:"action"`
	ItemName     string  `json:"itemName"`
	NewPrice     float64 `json:"newPrice"`
	CurrentPrice float64 `json:"currentPrice"`
}

const ActionConfirmPriceEdit = "confirm-price-edit"

// Confirmation is a recorded confirmation request.
type Confirmation struct {
	Text    string              `json:"text"`
	Payload ConfirmationPayload `json:"payload"`
}

// Transcript is an Outbound that records everything sent to it.
type Transcript struct {
	mu           sync.Mutex
	Replies      []string      `json:"replies"`
	Suggestions  []string      `json:"suggestions"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

func NewTranscript() *Transcript {
	return &Transcript{Replies: []string{}, Suggestions: []string{}}
}

func (t *Transcript) SendReply(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Replies = append(t.Replies, text)
}

// SendSuggestions replaces any earlier suggestions for the turn.
func (t *Transcript) SendSuggestions(suggestions []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Suggestions = append([]string(nil), suggestions...)
}

func (t *Transcript) SendConfirmationRequest(text string, payload ConfirmationPayload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Confirmation = &Confirmation{Text: text, Payload: payload}
}

// Snapshot returns a copy safe to serialise.
func (t *Transcript) Snapshot() TranscriptView {
	t.mu.Lock()
	defer t.mu.Unlock()
	view := TranscriptView{
		Replies:     append([]string{}, t.Replies...),
		Suggestions: append([]string{}, t.Suggestions...),
	}
	if t.Confirmation != nil {
		c := *t.Confirmation
		view.Confirmation = &c
	}
	return view
}

// TranscriptView is the serialisable form of a Transcript.
type TranscriptView struct {
	Replies      []string      `json:"replies"`
	Suggestions  []string      `json:"suggestions"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}
