package advisor

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	advisorsvc "finanzas/internal/services/advisor"
	"finanzas/internal/services/ledger"
	"finanzas/internal/templates"
)

// Panel texts
const (
	PanelTitle   = "Consejero IA"
	ButtonLabel  = "Obtener Consejo"
	LoadingLabel = "Analizando..."
	IdleHeadline = "Tu asesor personal está listo."
	IdleHint     = `Haz clic en "Obtener Consejo" para recibir un análisis basado en tus movimientos recientes.`
)

var (
	book     *ledger.Ledger
	renderer *templates.Renderer
	session  *advisorsvc.Session
)

// Initialize sets up the advisor package with required dependencies
func Initialize(l *ledger.Ledger, r *templates.Renderer, s *advisorsvc.Session) {
	book = l
	renderer = r
	session = s
}

// RegisterRoutes registers the advisor routes
func RegisterRoutes(r chi.Router) {
	r.Get("/advisor", handlePanel)
	r.Post("/advisor", handleRequest)
}

// PanelData is the view model for the advisor panel
func PanelData() map[string]any {
	snap := session.Snapshot()
	data := map[string]any{
		"Title":     PanelTitle,
		"Button":    ButtonLabel,
		"Loading":   snap.Loading,
		"Visible":   snap.Visible(),
		"Remaining": snap.Remaining,
		"Idle":      IdleHeadline,
		"Hint":      IdleHint,
	}
	if snap.Loading {
		data["Button"] = LoadingLabel
	}
	if snap.Visible() {
		html, err := advisorsvc.RenderHTML(snap.Advice)
		if err != nil {
			html = template.HTML(template.HTMLEscapeString(snap.Advice))
		}
		data["Advice"] = html
	}
	return data
}

func handlePanel(w http.ResponseWriter, r *http.Request) {
	apphttp.RenderPartial(w, r, renderer, "advisor", PanelData())
}

// handleRequest blocks for the thinking delay and answers with the filled
// panel. A client that goes away mid-request leaves the failure message.
func handleRequest(w http.ResponseWriter, r *http.Request) {
	summary, set := book.Snapshot()
	_, err := session.Request(r.Context(), summary, set)
	switch {
	case errors.Is(err, advisorsvc.ErrSuperseded):
		log.FromContext(r.Context()).Debug("advice request superseded")
	case err != nil:
		log.FromContext(r.Context()).Warn("advice request cancelled", log.FieldError, err)
	}
	apphttp.RenderPartial(w, r, renderer, "advisor", PanelData())
}
