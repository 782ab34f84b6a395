// Package render maps transcript messages to chat bubble view-models.
package render

import (
	"github.com/translatex/relay/internal/services/chat/models"
)

// TimeFormat is the hour:minute layout shown under each bubble
const TimeFormat = "15:04"

type Variant string

const (
	VariantLoading Variant = "loading"
	VariantError   Variant = "error"
	VariantFile    Variant = "file"
	VariantText    Variant = "text"
)

type Align string

const (
	AlignEnd   Align = "end"
	AlignStart Align = "start"
)

type Tone string

const (
	ToneUser      Tone = "user"
	ToneAssistant Tone = "assistant"
	ToneError     Tone = "error"
)

// Link is a download link attached to an assistant bubble
type Link struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

// Bubble is the view-model of one chat message
type Bubble struct {
	ID      string  `json:"id"`
	Variant Variant `json:"variant"`
	Align   Align   `json:"align"`
	Tone    Tone    `json:"tone"`
	Text    string  `json:"text"`
	// Attachment names the file a user message refers to
	Attachment string `json:"attachment,omitempty"`
	Download   *Link  `json:"download,omitempty"`
	Time       string `json:"time,omitempty"`
}

// Render maps each message to its bubble, preserving order
func Render(messages []models.Message) []Bubble {
	bubbles := make([]Bubble, 0, len(messages))
	for _, m := range messages {
		bubbles = append(bubbles, RenderMessage(m))
	}
	return bubbles
}

// RenderMessage maps one message to its bubble. Time is empty for messages
// without a timestamp.
func RenderMessage(m models.Message) Bubble {
	isUser := m.Role == models.RoleUser

	b := Bubble{
		ID:      m.ID,
		Variant: VariantText,
		Align:   AlignStart,
		Tone:    ToneAssistant,
		Text:    m.Content,
	}

	if isUser {
		b.Align = AlignEnd
		b.Tone = ToneUser
		b.Attachment = m.FileName
	}

	switch {
	case m.IsLoading:
		b.Variant = VariantLoading
	case m.IsError:
		b.Variant = VariantError
		b.Tone = ToneError
	case !isUser && m.FileName != "":
		b.Variant = VariantFile
		b.Download = &Link{Href: m.Content, Label: m.FileName}
	}

	if !m.Timestamp.IsZero() {
		b.Time = m.Timestamp.Format(TimeFormat)
	}

	return b
}
