package chat

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/translatex/relay/internal/services/chat/models"
)

// CommonLanguages are offered as quick-access choices when the backend supports them
var CommonLanguages = []string{"en", "es", "fr", "de", "zh", "ja", "ru", "ar", "pt", "it"}

// QuickAccess filters languages down to CommonLanguages, sorted by display name
func QuickAccess(languages []models.Language) []models.Language {
	common := make(map[string]struct{}, len(CommonLanguages))
	for _, code := range CommonLanguages {
		common[code] = struct{}{}
	}

	out := make([]models.Language, 0, len(CommonLanguages))
	for _, lang := range languages {
		if _, ok := common[lang.Code]; ok {
			out = append(out, lang)
		}
	}

	// collators are not safe for concurrent use
	col := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})

	return out
}
