// internal/workers/chat/handle-image-upload/models.go
package handleimageupload

import "quickbite/internal/chat"

type Input struct {
	Role           string `json:"role"`
	UserIdentifier string `json:"userIdentifier"`
	ImageRef       string `json:"imageRef"`
}

type Output struct {
	Replies     []string `json:"replies"`
	Suggestions []string `json:"suggestions"`
}

func outputFrom(view chat.TranscriptView) *Output {
	return &Output{Replies: view.Replies, Suggestions: view.Suggestions}
}
