package refs

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

// policy admits the markup the widget produces itself (markdown output, table
// spans, the resolver's citation anchors) and strips everything else a model
// may have emitted inline.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements(
		"p", "br", "hr", "blockquote", "pre", "code", "em", "strong", "del",
		"ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "sub", "sup",
	)
	p.AllowAttrs("href", "class", "ref", "target", "title").OnElements("a")
	p.AllowAttrs("class").OnElements("code", "pre", "span", "div")
	p.AllowAttrs("colspan", "rowspan", "align").OnElements("td", "th")
	return p
}()

// ToHTML renders a (possibly partial) markdown answer to sanitized HTML. It
// is tolerant by design: a half-arrived code fence or table renders as well
// as it can, so the widget can re-render on every delta.
func ToHTML(md string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return policy.Sanitize(md)
	}
	return policy.Sanitize(buf.String())
}
