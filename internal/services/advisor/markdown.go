package advisor

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the input is escaped; only markdown produces tags.
var md = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML converts advice markdown to HTML for the advisor panel
func RenderHTML(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
