package docs

import (
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy strips anything outside user-generated-content HTML. Page
// content is user input, so the rendered fragment is sanitized before it
// reaches a browser.
var htmlPolicy = bluemonday.UGCPolicy()

// RenderPageHTML converts a page's markdown content to a sanitized HTML
// fragment. The caller embeds the fragment into whatever chrome it wants;
// this stays a fragment so native clients can restyle it freely.
func RenderPageHTML(markdownContent string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(markdownContent))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	rendered := markdown.Render(doc, renderer)

	return htmlPolicy.SanitizeBytes(rendered)
}
