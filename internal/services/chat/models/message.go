package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat transcript
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	FileName  string    `json:"fileName,omitempty"`
	IsLoading bool      `json:"isLoading,omitempty"`
	IsError   bool      `json:"isError,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
