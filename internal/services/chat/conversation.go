package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/services/chat/models"
	"github.com/translatex/relay/internal/services/downloads"
)

var (
	// ErrEmptyPayload is returned when a submission has neither text nor a file
	ErrEmptyPayload = errors.New("nothing to translate")
	// ErrEmptyLanguage is returned when the target language is blank
	ErrEmptyLanguage = errors.New("target language is required")
)

// Translator performs the backend calls of a conversation
type Translator interface {
	TranslateText(ctx context.Context, text, targetLanguage string) (string, error)
	TranslateDocument(ctx context.Context, file *models.File, targetLanguage string) (*models.DocumentResult, error)
	SupportedLanguages(ctx context.Context) ([]models.Language, error)
}

// DownloadStore keeps translated documents behind a downloadable reference
type DownloadStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (*downloads.File, error)
}

// Options tune a new Conversation. Zero values are replaced by defaults.
type Options struct {
	TargetLanguage string
	// OnChange receives a snapshot after every update. Snapshots can arrive out of
	// order when submissions complete concurrently; compare Version to discard stale ones.
	OnChange func(models.Snapshot)
	Now      func() time.Time
	NewID    func() string
}

// Submission tracks one in-flight exchange with the backend
type Submission struct {
	RequestID string
	done      chan struct{}
}

// Done is closed once the submission's placeholder has been replaced
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission completes or ctx ends
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Conversation owns a session's transcript and the lifecycle of its submissions.
// Every mutation is applied as one locked update, so observers never see a
// placeholder removed without its replacement.
type Conversation struct {
	id         string
	translator Translator
	downloads  DownloadStore
	onChange   func(models.Snapshot)
	now        func() time.Time
	newID      func() string

	mu             sync.Mutex
	version        uint64
	messages       []models.Message
	inFlight       int
	mode           models.InputMode
	inputText      string
	selectedFile   *models.File
	targetLanguage string
	bannerError    *string
	languages      []models.Language
	lastActive     time.Time

	languagesOnce sync.Once
	languagesDone chan struct{}
	submissions   sync.WaitGroup
}

// NewConversation creates a conversation holding only the welcome message
func NewConversation(id string, translator Translator, store DownloadStore, opts Options) *Conversation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "fr"
	}

	now := opts.Now()
	return &Conversation{
		id:             id,
		translator:     translator,
		downloads:      store,
		onChange:       opts.OnChange,
		now:            opts.Now,
		newID:          opts.NewID,
		mode:           models.InputModeText,
		targetLanguage: opts.TargetLanguage,
		languages:      []models.Language{},
		lastActive:     now,
		languagesDone:  make(chan struct{}),
		messages: []models.Message{{
			ID:        WelcomeMessageID,
			Role:      models.RoleAssistant,
			Content:   welcomeText,
			Timestamp: now,
		}},
	}
}

func (c *Conversation) ID() string {
	return c.id
}

// update applies fn under the lock. fn reports whether it changed anything; only
// changes bump the version and notify observers.
func (c *Conversation) update(fn func() bool) models.Snapshot {
	c.mu.Lock()
	changed := fn()
	if changed {
		c.version++
	}
	c.lastActive = c.now()
	snap := c.snapshotLocked()
	onChange := c.onChange
	c.mu.Unlock()

	if changed && onChange != nil {
		onChange(snap)
	}
	return snap
}

// Snapshot returns a consistent copy of the conversation state
func (c *Conversation) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Version:        c.version,
		Messages:       append([]models.Message(nil), c.messages...),
		IsSubmitting:   c.inFlight > 0,
		InFlight:       c.inFlight,
		Mode:           c.mode,
		InputText:      c.inputText,
		TargetLanguage: c.targetLanguage,
		Languages:      append([]models.Language{}, c.languages...),
	}
	if c.selectedFile != nil {
		f := *c.selectedFile
		f.Data = nil
		snap.SelectedFile = &f
	}
	if c.bannerError != nil {
		msg := *c.bannerError
		snap.Error = &msg
	}
	return snap
}

// Submit starts one translation exchange for payload. The user message and the
// loading placeholder are appended and the input is cleared before Submit returns;
// the backend call runs in the background and cannot be cancelled. An empty payload
// returns ErrEmptyPayload without touching the transcript.
func (c *Conversation) Submit(ctx context.Context, payload models.Payload) (*Submission, error) {
	return c.submit(ctx, func() (models.Payload, bool) {
		if payload.IsEmpty() {
			return payload, false
		}
		if payload.TargetLanguage == "" {
			payload.TargetLanguage = c.targetLanguage
		}
		return payload, true
	})
}

// SubmitInput submits the current input: the selected file if there is one,
// otherwise the input text, into the selected target language
func (c *Conversation) SubmitInput(ctx context.Context) (*Submission, error) {
	return c.submit(ctx, func() (models.Payload, bool) {
		payload := models.Payload{TargetLanguage: c.targetLanguage}
		if c.selectedFile != nil {
			payload.File = c.selectedFile
		} else {
			payload.Text = c.inputText
		}
		return payload, !payload.IsEmpty()
	})
}

func (c *Conversation) submit(ctx context.Context, build func() (models.Payload, bool)) (*Submission, error) {
	requestID := c.newID()

	var payload models.Payload
	accepted := false
	c.update(func() bool {
		payload, accepted = build()
		if !accepted {
			return false
		}

		now := c.now()
		user := models.Message{
			ID:        requestID,
			Role:      models.RoleUser,
			Content:   payload.Text,
			Timestamp: now,
		}
		if payload.File != nil {
			user.Content = fmt.Sprintf(fileRequestFormat, payload.File.Name)
			user.FileName = payload.File.Name
		}

		c.messages = append(c.messages, user, models.Message{
			ID:        LoadingID(requestID),
			Role:      models.RoleAssistant,
			Content:   loadingText,
			IsLoading: true,
			Timestamp: now,
		})

		c.inputText = ""
		c.selectedFile = nil
		c.mode = models.InputModeText
		c.bannerError = nil
		c.inFlight++
		c.submissions.Add(1)
		return true
	})

	if !accepted {
		return nil, ErrEmptyPayload
	}

	log.Info().
		Str("conversation_id", c.id).
		Str("request_id", requestID).
		Bool("file", payload.File != nil).
		Str("target_language", payload.TargetLanguage).
		Msg("Translation submitted")

	sub := &Submission{RequestID: requestID, done: make(chan struct{})}
	go c.run(context.WithoutCancel(ctx), sub, payload)

	return sub, nil
}

// run performs the backend exchange. Whatever happens, the deferred completion
// replaces the placeholder with a terminal message.
func (c *Conversation) run(ctx context.Context, sub *Submission, payload models.Payload) {
	defer c.submissions.Done()
	defer close(sub.done)

	terminal := c.failureMessage(sub.RequestID)
	failed := true

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("conversation_id", c.id).
				Str("request_id", sub.RequestID).
				Interface("panic", r).
				Msg("Translation exchange panicked")
			terminal = c.failureMessage(sub.RequestID)
			failed = true
		}
		c.complete(sub.RequestID, terminal, failed)
	}()

	msg, err := c.exchange(ctx, sub.RequestID, payload)
	if err != nil {
		log.Error().
			Err(err).
			Str("conversation_id", c.id).
			Str("request_id", sub.RequestID).
			Msg("Translation failed")
		return
	}

	terminal, failed = msg, false
}

func (c *Conversation) exchange(ctx context.Context, requestID string, payload models.Payload) (models.Message, error) {
	if payload.File != nil {
		result, err := c.translator.TranslateDocument(ctx, payload.File, payload.TargetLanguage)
		if err != nil {
			return models.Message{}, err
		}
		return c.documentMessage(ctx, requestID, result)
	}

	text, err := c.translator.TranslateText(ctx, payload.Text, payload.TargetLanguage)
	if err != nil {
		return models.Message{}, err
	}
	if text == "" {
		text = completedText
	}

	return models.Message{
		ID:        ResponseID(requestID),
		Role:      models.RoleAssistant,
		Content:   text,
		Timestamp: c.now(),
	}, nil
}

func (c *Conversation) documentMessage(ctx context.Context, requestID string, result *models.DocumentResult) (models.Message, error) {
	msg := models.Message{
		ID:        ResponseID(requestID),
		Role:      models.RoleAssistant,
		Timestamp: c.now(),
	}

	if result == nil {
		msg.Content = completedText
		return msg, nil
	}

	if result.Binary {
		if c.downloads == nil {
			return models.Message{}, errors.New("no download store configured")
		}

		name := strings.TrimSpace(result.FileName)
		if name == "" {
			name = defaultFileName
		}

		file, err := c.downloads.Save(ctx, name, result.ContentType, result.Data)
		if err != nil {
			return models.Message{}, fmt.Errorf("failed to store translated document: %w", err)
		}

		msg.Content = file.Href()
		msg.FileName = name
		return msg, nil
	}

	switch {
	case result.TranslatedText != "":
		msg.Content = result.TranslatedText
	case result.FileURL != "":
		msg.Content = result.FileURL
		msg.FileName = downloadLabel
	default:
		msg.Content = completedText
	}
	return msg, nil
}

func (c *Conversation) failureMessage(requestID string) models.Message {
	return models.Message{
		ID:        ErrorID(requestID),
		Role:      models.RoleAssistant,
		Content:   failureText,
		IsError:   true,
		Timestamp: c.now(),
	}
}

// complete swaps the placeholder for its terminal message in a single update. The
// terminal message goes to the end of the transcript, so concurrent submissions
// appear in completion order.
func (c *Conversation) complete(requestID string, terminal models.Message, failed bool) {
	loadingID := LoadingID(requestID)

	c.update(func() bool {
		kept := c.messages[:0:0]
		for _, m := range c.messages {
			if m.ID != loadingID {
				kept = append(kept, m)
			}
		}
		c.messages = append(kept, terminal)

		if c.inFlight > 0 {
			c.inFlight--
		}
		if failed {
			banner := failureBannerText
			c.bannerError = &banner
		}
		return true
	})

	log.Debug().
		Str("conversation_id", c.id).
		Str("request_id", requestID).
		Bool("failed", failed).
		Msg("Translation completed")
}

// SelectFile stages file for the next submission. Files outside the allow-list are
// rejected: the banner error is set, the input is cleared and the transcript is untouched.
func (c *Conversation) SelectFile(file *models.File) error {
	if file == nil {
		return fmt.Errorf("%w: no file", ErrUnsupportedFileType)
	}

	contentType := DeclaredMediaType(file.ContentType)
	if !IsSupportedFileType(contentType) {
		c.update(func() bool {
			banner := unsupportedText
			c.bannerError = &banner
			c.selectedFile = nil
			c.inputText = ""
			c.mode = models.InputModeText
			return true
		})

		log.Warn().
			Str("conversation_id", c.id).
			Str("file_name", file.Name).
			Str("content_type", contentType).
			Msg("Rejected unsupported file type")
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}

	staged := *file
	staged.ContentType = contentType
	staged.Size = len(file.Data)

	c.update(func() bool {
		c.selectedFile = &staged
		c.inputText = fmt.Sprintf(selectedFileFormat, staged.Name)
		c.mode = models.InputModeFile
		c.bannerError = nil
		return true
	})
	return nil
}

// ClearFile drops the staged file and returns to text input
func (c *Conversation) ClearFile() {
	c.update(func() bool {
		c.selectedFile = nil
		c.inputText = ""
		c.mode = models.InputModeText
		return true
	})
}

func (c *Conversation) SetInputText(text string) {
	c.update(func() bool {
		if c.inputText == text {
			return false
		}
		c.inputText = text
		return true
	})
}

func (c *Conversation) SetTargetLanguage(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyLanguage
	}

	c.update(func() bool {
		if c.targetLanguage == code {
			return false
		}
		c.targetLanguage = code
		return true
	})
	return nil
}

// DismissError clears the banner error
func (c *Conversation) DismissError() {
	c.update(func() bool {
		if c.bannerError == nil {
			return false
		}
		c.bannerError = nil
		return true
	})
}

// FetchLanguages loads the supported languages once per conversation. Failures are
// logged and leave the list empty.
func (c *Conversation) FetchLanguages(ctx context.Context) {
	c.languagesOnce.Do(func() {
		defer close(c.languagesDone)

		languages, err := c.translator.SupportedLanguages(ctx)
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", c.id).Msg("Failed to fetch supported languages")
			return
		}

		c.update(func() bool {
			c.languages = append([]models.Language{}, languages...)
			return true
		})
		log.Debug().Str("conversation_id", c.id).Int("count", len(languages)).Msg("Supported languages loaded")
	})
}

// LanguagesLoaded is closed once FetchLanguages has finished, successfully or not
func (c *Conversation) LanguagesLoaded() <-chan struct{} {
	return c.languagesDone
}

func (c *Conversation) Languages() []models.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Language{}, c.languages...)
}

func (c *Conversation) QuickAccessLanguages() []models.Language {
	return QuickAccess(c.Languages())
}

func (c *Conversation) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Conversation) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Wait blocks until every submission accepted so far has completed. Submissions
// are counted under the lock, so taking it first orders Wait after them.
func (c *Conversation) Wait() {
	c.mu.Lock()
	c.mu.Unlock()
	c.submissions.Wait()
}
