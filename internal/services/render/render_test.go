package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translatex/relay/internal/services/chat/models"
)

func TestRenderMessage(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		message models.Message
		want    Bubble
	}{
		{
			name:    "User text",
			message: models.Message{ID: "1", Role: models.RoleUser, Content: "Hello", Timestamp: ts},
			want:    Bubble{ID: "1", Variant: VariantText, Align: AlignEnd, Tone: ToneUser, Text: "Hello", Time: "14:05"},
		},
		{
			name:    "User file",
			message: models.Message{ID: "2", Role: models.RoleUser, Content: "Translate file: a.pdf", FileName: "a.pdf", Timestamp: ts},
			want: Bubble{ID: "2", Variant: VariantText, Align: AlignEnd, Tone: ToneUser, Text: "Translate file: a.pdf",
				Attachment: "a.pdf", Time: "14:05"},
		},
		{
			name:    "Loading placeholder",
			message: models.Message{ID: "loading-3", Role: models.RoleAssistant, Content: "Translating...", IsLoading: true, Timestamp: ts},
			want:    Bubble{ID: "loading-3", Variant: VariantLoading, Align: AlignStart, Tone: ToneAssistant, Text: "Translating...", Time: "14:05"},
		},
		{
			name:    "Error",
			message: models.Message{ID: "error-3", Role: models.RoleAssistant, Content: "Sorry", IsError: true, Timestamp: ts},
			want:    Bubble{ID: "error-3", Variant: VariantError, Align: AlignStart, Tone: ToneError, Text: "Sorry", Time: "14:05"},
		},
		{
			name: "Assistant file",
			message: models.Message{ID: "response-4", Role: models.RoleAssistant, Content: "/api/downloads/abc",
				FileName: "a_fr.pdf", Timestamp: ts},
			want: Bubble{ID: "response-4", Variant: VariantFile, Align: AlignStart, Tone: ToneAssistant, Text: "/api/downloads/abc",
				Download: &Link{Href: "/api/downloads/abc", Label: "a_fr.pdf"}, Time: "14:05"},
		},
		{
			name:    "Assistant text",
			message: models.Message{ID: "response-5", Role: models.RoleAssistant, Content: "Bonjour", Timestamp: ts},
			want:    Bubble{ID: "response-5", Variant: VariantText, Align: AlignStart, Tone: ToneAssistant, Text: "Bonjour", Time: "14:05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderMessage(tt.message))
		})
	}
}

func TestRenderMessageWithoutTimestamp(t *testing.T) {
	m := models.Message{ID: "x", Role: models.RoleAssistant, Content: "hi"}

	assert.Empty(t, RenderMessage(m).Time)
	assert.Equal(t, RenderMessage(m), RenderMessage(m))
}

func TestRender(t *testing.T) {
	messages := []models.Message{
		{ID: "welcome", Role: models.RoleAssistant, Content: "Welcome"},
		{ID: "1", Role: models.RoleUser, Content: "Hi"},
		{ID: "loading-1", Role: models.RoleAssistant, Content: "Translating...", IsLoading: true},
	}

	bubbles := Render(messages)
	require.Len(t, bubbles, 3)
	assert.Equal(t, "welcome", bubbles[0].ID)
	assert.Equal(t, AlignEnd, bubbles[1].Align)
	assert.Equal(t, VariantLoading, bubbles[2].Variant)

	assert.Empty(t, Render(nil))
}
