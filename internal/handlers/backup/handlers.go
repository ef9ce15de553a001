package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	"finanzas/internal/models"
	"finanzas/internal/services/advisor"
	"finanzas/internal/services/confirm"
	"finanzas/internal/services/exporter"
	"finanzas/internal/services/ledger"
	"finanzas/internal/templates"
	"finanzas/internal/version"
)

// Clear button labels
const (
	ClearLabel   = "Borrar todo"
	ConfirmLabel = "¿Estás seguro?"
)

// maxRestoreSize caps uploaded backup files
const maxRestoreSize = 10 << 20

var (
	book     *ledger.Ledger
	renderer *templates.Renderer
	gate     *confirm.Gate
	session  *advisor.Session
	window   time.Duration
	now      = time.Now
)

// Initialize sets up the backup package with required dependencies
func Initialize(l *ledger.Ledger, r *templates.Renderer, g *confirm.Gate, s *advisor.Session, confirmWindow time.Duration) {
	book = l
	renderer = r
	gate = g
	session = s
	window = confirmWindow
}

// RegisterRoutes registers health, export, backup and data routes
func RegisterRoutes(r chi.Router) {
	r.Get("/api/health", HandleHealth)
	r.Get("/api/version", HandleVersion)
	r.Get("/export", HandleExport)
	r.Get("/backup", HandleBackup)
	r.Post("/restore", HandleRestore)
	r.Get("/data/clear", HandleClearButton)
	r.Post("/data/clear", HandleClear)
}

// ClearButtonData is the view model for the clear-all button
func ClearButtonData() map[string]any {
	armed := gate.Armed()
	label := ClearLabel
	if armed {
		label = ConfirmLabel
	}
	return map[string]any{
		"Armed":    armed,
		"Label":    label,
		"WindowMS": window.Milliseconds(),
		"HasData":  book.Len() > 0,
	}
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"transactions": book.Len(),
	})
}

func HandleVersion(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, version.Get())
}

// HandleExport streams the xlsx workbook. An empty ledger answers 409 with a notice.
func HandleExport(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentExport)

	f, err := exporter.Workbook(book.Transactions())
	if errors.Is(err, exporter.ErrNothingToExport) {
		apphttp.Triggers{}.Notify("info", exporter.NothingToExportMessage).Apply(w)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, exporter.NothingToExportMessage)
		return
	}
	if err != nil {
		logger.Error("export failed", log.FieldError, err)
		apphttp.ErrorResponse(w, r, "Error generando el archivo", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	filename := exporter.Filename(now())
	w.Header().Set("Content-Type", exporter.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if _, err := f.WriteTo(w); err != nil {
		// Headers are already sent; all we can do is log
		logger.Error("export write failed", log.FieldError, err)
		return
	}
	logger.Info("exported", log.FieldCount, book.Len(), "file", filename)
}

// HandleBackup downloads the raw transaction array as JSON
func HandleBackup(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("finanzas_backup_%s.json", now().Format("20060102_150405"))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(book.Transactions()); err != nil {
		log.FromContext(r.Context()).Error("backup write failed", log.FieldError, err)
	}
}

// HandleRestore replaces the whole set from an uploaded JSON backup
func HandleRestore(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRestoreSize); err != nil {
		apphttp.ErrorResponse(w, r, "Archivo demasiado grande", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apphttp.ErrorResponse(w, r, "Error leyendo el archivo", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		apphttp.ErrorResponse(w, r, "Solo se permiten copias de seguridad JSON", http.StatusBadRequest)
		return
	}

	var txs []models.Transaction
	if err := json.NewDecoder(file).Decode(&txs); err != nil {
		apphttp.ErrorResponse(w, r, "Copia de seguridad inválida", http.StatusBadRequest)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	triggers := apphttp.LedgerChanged()
	if err := book.Replace(r.Context(), txs); err != nil {
		if !errors.Is(err, ledger.ErrPersist) {
			apphttp.ErrorResponse(w, r, "Copia de seguridad inválida: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		triggers.Notify("error", "No se pudo guardar en disco.")
	} else {
		triggers.Notify("info", fmt.Sprintf("%d transacciones restauradas", len(txs)))
	}
	log.FromContext(r.Context()).Info("backup restored", log.FieldCount, len(txs), "file", header.Filename)

	triggers.Apply(w)
	apphttp.WriteJSON(w, http.StatusOK, map[string]int{"restored": len(txs)})
}

// HandleClearButton renders the button in its current state. The armed
// button polls this once its window has passed.
func HandleClearButton(w http.ResponseWriter, r *http.Request) {
	apphttp.RenderPartial(w, r, renderer, "clear_button", ClearButtonData())
}

// HandleClear arms the gate on the first press and clears everything on the
// second. Clearing also dismisses any advice on screen.
func HandleClear(w http.ResponseWriter, r *http.Request) {
	if !gate.Press() {
		apphttp.RenderPartial(w, r, renderer, "clear_button", ClearButtonData())
		return
	}

	triggers := apphttp.LedgerChanged().Trigger(apphttp.EventAdvisorReset)
	if err := book.ClearAll(r.Context()); err != nil {
		log.FromContext(r.Context()).Error("clear not persisted", log.FieldError, err)
		triggers.Notify("error", "No se pudo guardar en disco.")
	}
	session.Reset()

	triggers.Apply(w)
	apphttp.RenderPartial(w, r, renderer, "clear_button", ClearButtonData())
}
