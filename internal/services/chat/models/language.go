package models

// Language is an entry of the backend's supported-languages list
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SupportedLanguagesResponse is the backend's GET /supported-languages body
type SupportedLanguagesResponse struct {
	Languages []Language `json:"languages"`
}
