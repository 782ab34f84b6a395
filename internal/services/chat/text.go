package chat

// User-facing strings of the conversation
const (
	WelcomeMessageID = "welcome"
	welcomeText      = "Welcome to TranslateX Pro. Type some text or upload a document to translate."

	loadingText        = "Translating..."
	completedText      = "Translation complete"
	downloadLabel      = "Download translated file"
	defaultFileName    = "translated-document"
	fileRequestFormat  = "Translate file: %s"
	selectedFileFormat = "Selected file: %s"

	failureText       = "Sorry, something went wrong while translating. Please try again."
	failureBannerText = "Translation failed. Please try again."
	unsupportedText   = "Unsupported file format. Please upload PDF, Word, Excel or PowerPoint files."
)
