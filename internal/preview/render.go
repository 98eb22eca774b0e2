package preview

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/nanofresh/invoicer/web"
)

const documentTemplate = "invoice/document.html"

// Layout controls how the document is laid out in the render target.
type Layout struct {
	Width    int     // fixed width in CSS pixels, 0 for fluid
	FontSize string  // CSS font size, empty for the stylesheet default
	Border   bool    // draw the on-screen frame around the page
	Zoom     float64 // CSS zoom applied for high resolution captures
}

// ScreenLayout is the layout of the live preview.
func ScreenLayout() Layout {
	return Layout{Border: true, Zoom: 1}
}

// PrintLayout is the fixed A4 layout used while capturing an export.
func PrintLayout(width int, scale float64) Layout {
	return Layout{Width: width, FontSize: "10pt", Zoom: scale}
}

// Renderer turns Documents into HTML.
type Renderer struct {
	templates *template.Template
}

type renderData struct {
	Document Document
	Layout   Layout
}

// NewRenderer parses the embedded document template.
func NewRenderer() (*Renderer, error) {
	tpl, err := template.New("invoice").ParseFS(web.Templates, "templates/invoice/*.html")
	if err != nil {
		return nil, fmt.Errorf("preview: parse templates: %w", err)
	}
	return &Renderer{templates: tpl}, nil
}

// Render executes the document template under the given layout.
func (r *Renderer) Render(doc Document, layout Layout) (string, error) {
	if r == nil || r.templates == nil {
		return "", fmt.Errorf("preview: renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.templates.ExecuteTemplate(buf, documentTemplate, renderData{Document: doc, Layout: layout}); err != nil {
		return "", fmt.Errorf("preview: render: %w", err)
	}
	return buf.String(), nil
}
