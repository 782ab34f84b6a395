package chat

import (
	"github.com/translatex/relay/internal/services/chat/models"
	"github.com/translatex/relay/internal/services/render"
)

// ViewType tags conversation views pushed over the websocket
const ViewType = "snapshot"

// View is the client-facing form of a snapshot: the state itself, the rendered
// bubbles and the quick-access language choices
type View struct {
	Type string `json:"type"`
	models.Snapshot
	Bubbles     []render.Bubble   `json:"bubbles"`
	QuickAccess []models.Language `json:"quickAccessLanguages"`
}

func NewView(snapshot models.Snapshot) View {
	return View{
		Type:        ViewType,
		Snapshot:    snapshot,
		Bubbles:     render.Render(snapshot.Messages),
		QuickAccess: QuickAccess(snapshot.Languages),
	}
}
