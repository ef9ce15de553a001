package transactions

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	"finanzas/internal/services/dataloader"
	"finanzas/internal/services/form"
	"finanzas/internal/services/ledger"
	"finanzas/internal/templates"
)

// EmptyListMessage is shown when there are no records
const EmptyListMessage = "No hay transacciones aún."

// maxImportSize caps uploaded CSV statements
const maxImportSize = 10 << 20

var (
	book     *ledger.Ledger
	renderer *templates.Renderer
	loader   *dataloader.Loader
	now      = time.Now
)

// Initialize sets up the transactions package with required dependencies
func Initialize(l *ledger.Ledger, r *templates.Renderer, d *dataloader.Loader) {
	book = l
	renderer = r
	loader = d
}

// RegisterRoutes registers all transaction routes
func RegisterRoutes(r chi.Router) {
	r.Get("/transactions", handleList)
	r.Post("/transactions", handleCreate)
	r.Delete("/transactions/{id}", handleDelete)
	r.Get("/transactions/form", handleForm)
	r.Post("/transactions/import", handleImport)
}

// ListData is the view model for the history panel, newest insertion first
func ListData() map[string]any {
	return map[string]any{
		"Transactions": book.Set().Reverse().Transactions,
		"EmptyMessage": EmptyListMessage,
	}
}

// FormData is the view model for the entry form
func FormData(f *form.Form) map[string]any {
	return map[string]any{
		"Form":        f,
		"SubmitLabel": f.SubmitLabel(),
		"Toggle":      f.Type.Toggle(),
	}
}

func handleList(w http.ResponseWriter, r *http.Request) {
	data := ListData()
	if renderer == nil {
		apphttp.WriteJSON(w, http.StatusOK, data)
		return
	}
	apphttp.RenderPartial(w, r, renderer, "transactions", data)
}

// handleForm re-renders the form, used by the income/expense toggle. Typed
// values are carried over.
func handleForm(w http.ResponseWriter, r *http.Request) {
	f := form.New()
	f.SetType(r.URL.Query().Get("type"))
	f.SetAmount(r.URL.Query().Get("amount"))
	f.SetDescription(r.URL.Query().Get("description"))
	apphttp.RenderPartial(w, r, renderer, "transaction_form", FormData(f))
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apphttp.ErrorResponse(w, r, "Formulario inválido", http.StatusBadRequest)
		return
	}

	f := form.New()
	f.SetType(r.PostForm.Get("type"))
	f.SetAmount(r.PostForm.Get("amount"))
	f.SetDescription(r.PostForm.Get("description"))

	t, err := f.Submit(now())
	switch {
	case errors.Is(err, form.ErrMissingField):
		// Blank input is ignored without feedback
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, form.ErrInvalidAmount):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		apphttp.RenderPartial(w, r, renderer, "transaction_form", FormData(f))
		return
	}

	logger := log.FromContext(r.Context())
	triggers := apphttp.LedgerChanged()
	if err := book.Add(r.Context(), t); err != nil {
		if !errors.Is(err, ledger.ErrPersist) {
			apphttp.ErrorResponse(w, r, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		logger.Error("transaction kept in memory only", log.FieldTxID, t.ID, log.FieldError, err)
		triggers.Notify("error", "No se pudo guardar en disco.")
	}

	triggers.Apply(w)
	apphttp.RenderPartial(w, r, renderer, "transaction_form", FormData(f))
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	triggers := apphttp.LedgerChanged()
	if err := book.Delete(r.Context(), id); err != nil {
		log.FromContext(r.Context()).Error("delete not persisted", log.FieldTxID, id, log.FieldError, err)
		triggers.Notify("error", "No se pudo guardar en disco.")
	}

	triggers.Apply(w)
	w.WriteHeader(http.StatusOK)
}

func handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		apphttp.ErrorResponse(w, r, "Archivo demasiado grande", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apphttp.ErrorResponse(w, r, "Error leyendo el archivo", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		apphttp.ErrorResponse(w, r, "Solo se permiten archivos CSV", http.StatusBadRequest)
		return
	}

	res, err := loader.Load(file, header.Filename, book.Set().Hashes())
	if err != nil {
		apphttp.ErrorResponse(w, r, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	triggers := apphttp.Triggers{}
	if len(res.Transactions) > 0 {
		triggers.Trigger(apphttp.EventLedgerChanged)
		if err := book.Append(r.Context(), res.Transactions); err != nil && !errors.Is(err, ledger.ErrPersist) {
			apphttp.ErrorResponse(w, r, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}
	message := fmt.Sprintf("%d importadas, %d duplicadas, %d transferencias omitidas, %d inválidas",
		len(res.Transactions), res.Duplicates, res.Transfers, res.Invalid)
	triggers.Notify("info", message)
	triggers.Apply(w)

	apphttp.WriteJSON(w, http.StatusOK, map[string]int{
		"imported":   len(res.Transactions),
		"duplicates": res.Duplicates,
		"transfers":  res.Transfers,
		"invalid":    res.Invalid,
	})
}
