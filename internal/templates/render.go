// Package templates loads the dashboard's html/template set and renders pages
// and htmx partials from it.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"text/template/parse"

	"finanzas/internal/log"
	"finanzas/internal/models"
)

// Subdirectories of the template root, parsed in this order
var templateDirs = []string{"layouts", "pages", "partials"}

var errLineRe = regexp.MustCompile(`:(\d+):`)

type Renderer struct {
	mu     sync.RWMutex
	set    *template.Template
	dir    string
	debug  bool
	logger *log.Logger
}

// New parses every template under dir. In debug mode the set is parsed again
// before each render so template edits show up without a restart.
func New(dir string, debug bool, logger *log.Logger) (*Renderer, error) {
	r := &Renderer{
		dir:    dir,
		debug:  debug,
		logger: logger.WithComponent(log.ComponentTemplate),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":       formatMoney,
		"percent":     formatPercent,
		"date":        formatDate,
		"isNegative":  func(m models.Money) bool { return m.IsNegative() },
		"isIncome":    func(tt models.TransactionType) bool { return tt == models.Income },
		"amountClass": amountClass,
	}
}

func (r *Renderer) load() error {
	var files []string
	for _, sub := range templateDirs {
		matches, err := filepath.Glob(filepath.Join(r.dir, sub, "*.html"))
		if err != nil {
			return fmt.Errorf("glob %s: %w", sub, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates under %s", r.dir)
	}

	set := template.New("").Funcs(FuncMap())
	var errs []error
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := set.New(filepath.Base(file)).Parse(string(src)); err != nil {
			errs = append(errs, parseError(file, src, err))
		}
	}
	if len(errs) == 0 {
		errs = undefinedReferences(set)
	}
	if len(errs) > 0 {
		for _, err := range errs {
			r.logger.Error("template error", log.FieldError, err)
		}
		return fmt.Errorf("load templates: %w", errors.Join(errs...))
	}

	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
	r.logger.Debug("templates loaded", log.FieldCount, len(files))
	return nil
}

// parseError adds the offending source line to a parse error
func parseError(file string, src []byte, err error) error {
	m := errLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	n, _ := strconv.Atoi(m[1])
	lines := strings.Split(string(src), "\n")
	if n < 1 || n > len(lines) {
		return fmt.Errorf("%s: %w", file, err)
	}
	return fmt.Errorf("%s: %w\n\t%d | %s", file, err, n, strings.TrimSpace(lines[n-1]))
}

// undefinedReferences finds {{template "x"}} calls whose target was never
// defined. html/template would only fail on them at execution time.
func undefinedReferences(set *template.Template) []error {
	var errs []error
	for _, t := range set.Templates() {
		if t.Tree == nil {
			continue
		}
		tree := t.Tree
		walkTemplateCalls(tree.Root, func(call *parse.TemplateNode) {
			if set.Lookup(call.Name) == nil {
				loc, _ := tree.ErrorContext(call)
				errs = append(errs, fmt.Errorf("%s: undefined template %q", loc, call.Name))
			}
		})
	}
	return errs
}

func walkTemplateCalls(node parse.Node, visit func(*parse.TemplateNode)) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walkTemplateCalls(child, visit)
		}
	case *parse.IfNode:
		walkTemplateCalls(n.List, visit)
		walkTemplateCalls(n.ElseList, visit)
	case *parse.RangeNode:
		walkTemplateCalls(n.List, visit)
		walkTemplateCalls(n.ElseList, visit)
	case *parse.WithNode:
		walkTemplateCalls(n.List, visit)
		walkTemplateCalls(n.ElseList, visit)
	case *parse.TemplateNode:
		visit(n)
	}
}

// Render writes the named page or partial. Output is buffered, so a failing
// template answers 500 instead of half a page.
func (r *Renderer) Render(w http.ResponseWriter, name string, data any) error {
	if r.debug {
		if err := r.load(); err != nil {
			r.logger.Warn("template reload failed, keeping previous set", log.FieldError, err)
		}
	}

	var buf bytes.Buffer
	if err := r.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template render failed", "template", name, log.FieldError, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) RenderToString(name string, data any) (string, error) {
	var sb strings.Builder
	if err := r.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) ExecuteTemplate(w io.Writer, name string, data any) error {
	r.mu.RLock()
	set := r.set
	r.mu.RUnlock()
	return set.ExecuteTemplate(w, name, data)
}

func formatMoney(m models.Money) string { return m.String() }

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

func formatDate(d models.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Display()
}

func amountClass(tt models.TransactionType) string {
	if tt == models.Income {
		return "amount-income"
	}
	return "amount-expense"
}
