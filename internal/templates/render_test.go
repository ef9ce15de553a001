package templates

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finanzas/internal/log"
	"finanzas/internal/models"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFuncMap(t *testing.T) {
	fm := FuncMap()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"money", fm["money"].(func(models.Money) string)(models.MoneyFromInt(2500)), "$2,500.00"},
		{"percent", fm["percent"].(func(float64) string)(70.4), "70%"},
		{"date", fm["date"].(func(models.Date) string)(models.NewDate(2023, 10, 5)), "05/10/2023"},
		{"date zero", fm["date"].(func(models.Date) string)(models.Date{}), ""},
		{"amountClass income", fm["amountClass"].(func(models.TransactionType) string)(models.Income), "amount-income"},
		{"amountClass expense", fm["amountClass"].(func(models.TransactionType) string)(models.Expense), "amount-expense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"layouts/base.html":    `{{define "base"}}<h1>{{.Title}}</h1>{{template "total" .}}{{end}}`,
		"partials/total.html":  `{{define "total"}}<p>{{money .Total}}</p>{{end}}`,
		"pages/dashboard.html": `{{define "content"}}{{end}}`,
	})
	r, err := New(dir, false, log.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	err = r.Render(w, "base", map[string]any{"Title": "Finanzas", "Total": models.MoneyFromInt(1850)})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := w.Body.String(); body != "<h1>Finanzas</h1><p>$1,850.00</p>" {
		t.Errorf("body = %q", body)
	}

	// A failing template answers 500 instead of half a page
	w = httptest.NewRecorder()
	if err := r.Render(w, "missing", nil); err == nil {
		t.Error("expected error for unknown template")
	}
	if w.Code != 500 || strings.Contains(w.Body.String(), "<h1>") {
		t.Errorf("error response = %d %q", w.Code, w.Body.String())
	}
}

func TestNewRejectsUndefinedReference(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"layouts/base.html": `{{define "base"}}{{template "nowhere" .}}{{end}}`,
	})
	if _, err := New(dir, false, log.Discard()); err == nil || !strings.Contains(err.Error(), "undefined template") {
		t.Errorf("err = %v", err)
	}
}

func TestNewReportsParseErrors(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"layouts/base.html": "{{define \"base\"}}\n{{if}}\n{{end}}",
	})
	_, err := New(dir, false, log.Discard())
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "2 | {{if}}") {
		t.Errorf("error does not quote the failing line: %v", err)
	}
}

func TestNewFindsReferencesInBranches(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"layouts/base.html": `{{define "base"}}{{range .Items}}{{else}}{{if .X}}{{template "empty" .}}{{end}}{{end}}{{end}}`,
	})
	if _, err := New(dir, false, log.Discard()); err == nil || !strings.Contains(err.Error(), `"empty"`) {
		t.Errorf("err = %v", err)
	}
}

func TestNewNoTemplates(t *testing.T) {
	if _, err := New(t.TempDir(), false, log.Discard()); err == nil {
		t.Error("expected error for empty directory")
	}
}

// TestApplicationTemplates loads the real templates shipped with the server
func TestApplicationTemplates(t *testing.T) {
	dir := filepath.Join("..", "..", "web", "templates")
	r, err := New(dir, false, log.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.RenderToString("clear_button", map[string]any{
		"Armed": true, "Label": "¿Estás seguro?", "WindowMS": int64(3000), "HasData": true,
	})
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	if !strings.Contains(out, "load delay:3000ms") || !strings.Contains(out, "¿Estás seguro?") {
		t.Errorf("clear_button = %s", out)
	}
}
