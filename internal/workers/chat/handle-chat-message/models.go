// internal/workers/chat/handle-chat-message/models.go
package handlechatmessage

import "quickbite/internal/chat"

type Input struct {
	Role           string `json:"role"`
	UserIdentifier string `json:"userIdentifier"`
	SessionID      string `json:"sessionId"`
	Text           string `json:"text"`
}

type Output struct {
	Replies      []string           `json:"replies"`
	Suggestions  []string           `json:"suggestions"`
	Confirmation *chat.Confirmation `json:"confirmation,omitempty"`
	Intent       string             `json:"intent"`
}
