package models

// Snapshot is a consistent copy of a conversation's state
type Snapshot struct {
	Version        uint64     `json:"version"`
	Messages       []Message  `json:"messages"`
	IsSubmitting   bool       `json:"isSubmitting"`
	InFlight       int        `json:"inFlight"`
	Mode           InputMode  `json:"mode"`
	InputText      string     `json:"inputText"`
	SelectedFile   *File      `json:"selectedFile,omitempty"`
	TargetLanguage string     `json:"targetLanguage"`
	Error          *string    `json:"error"`
	Languages      []Language `json:"languages"`
}

// LoadingCount returns the number of placeholder messages in the snapshot
func (s Snapshot) LoadingCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.IsLoading {
			n++
		}
	}
	return n
}

// Last returns the final message of the transcript
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
