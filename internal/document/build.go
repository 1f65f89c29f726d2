// internal/document/build.go
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/beevik/etree"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

// item is the syntax-neutral element tree both parsers produce. A text run
// has an empty tag.
type item struct {
	tag   string
	attrs map[string]string
	text  string
	items []*item
	src   any // *html.Node or *etree.Element, used to answer queries
}

func (it *item) isText() bool { return it.tag == "" }

// innerText concatenates the text of every descendant run.
func (it *item) innerText() string {
	if it.isText() {
		return it.text
	}
	var b strings.Builder
	for _, c := range it.items {
		b.WriteString(c.innerText())
	}
	return b.String()
}

// containerTags are transparent wrappers whose children form the view.
var containerTags = map[string]bool{"body": true, "document": true, "boxflow": true}

// ParseHTML reads a markup document. The view tree is the single view
// element inside <body>; several top-level elements get an implicit root box.
func ParseHTML(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	d := newDocument(FormatHTML, opts)
	d.htmlRoot = root

	for _, n := range htmlquery.Find(root, "//style") {
		d.styles = append(d.styles, htmlquery.InnerText(n))
	}
	body := htmlquery.FindOne(root, "//body")
	if body == nil {
		return nil, ErrEmptyDocument
	}
	return d.finish(d.top(fromHTML(body)), opts)
}

func fromHTML(n *html.Node) *item {
	if n.Type == html.TextNode {
		return &item{text: n.Data, src: n}
	}
	it := &item{tag: strings.ToLower(n.Data), attrs: make(map[string]string, len(n.Attr)), src: n}
	for _, a := range n.Attr {
		it.attrs[strings.ToLower(a.Key)] = a.Val
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode || c.Type == html.TextNode {
			it.items = append(it.items, fromHTML(c))
		}
	}
	return it
}

// ParseXML reads an XML document. The root element is either a view element
// or a <document> wrapper holding <style> elements and the view.
func ParseXML(r io.Reader, opts ...Option) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse xml: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrEmptyDocument
	}
	d := newDocument(FormatXML, opts)
	d.xmlDoc = doc
	top := fromXML(doc.Root())
	d.collectStyles(top)
	return d.finish(d.top(top), opts)
}

func fromXML(el *etree.Element) *item {
	it := &item{tag: strings.ToLower(el.Tag), attrs: make(map[string]string, len(el.Attr)), src: el}
	for _, a := range el.Attr {
		it.attrs[strings.ToLower(a.Key)] = a.Value
	}
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			it.items = append(it.items, fromXML(t))
		case *etree.CharData:
			it.items = append(it.items, &item{text: t.Data})
		}
	}
	return it
}

// top returns the view root below a wrapper element.
func (d *Document) top(it *item) *item {
	if !containerTags[it.tag] {
		return it
	}
	var views []*item
	hasText := false
	for _, c := range it.items {
		switch {
		case c.isText():
			hasText = hasText || strings.TrimSpace(c.text) != ""
		case c.tag != "style":
			views = append(views, c)
		}
	}
	if len(views) == 1 && !hasText {
		return views[0]
	}
	return &item{tag: "box", attrs: it.attrs, items: it.items, src: it.src}
}

// collectStyles gathers <style> text in document order.
func (d *Document) collectStyles(it *item) {
	if it.isText() {
		return
	}
	if it.tag == "style" {
		d.styles = append(d.styles, it.innerText())
		return
	}
	for _, c := range it.items {
		d.collectStyles(c)
	}
}

// build converts an element into a box and recurses into view children.
func (d *Document) build(it *item) *layout.Box {
	kind, ok := layout.ParseKind(it.tag)
	if !ok {
		d.warn(fmt.Errorf("%w: <%s>", ErrUnknownElement, it.tag))
		return nil
	}

	id := it.attrs["id"]
	b := layout.NewBox(kind, id, style.ParseClassAttr(it.attrs["class"])...)
	d.tags[b] = it.tag
	if it.src != nil {
		d.bySource[it.src] = b
	}
	if id != "" {
		if _, dup := d.byID[id]; dup {
			d.warn(fmt.Errorf("duplicate id %q", id))
		} else {
			d.byID[id] = b
		}
	}
	d.applyAttrs(b, it)

	if kind.Has(layout.Measurable) {
		if kind != layout.KindImage {
			text := it.innerText()
			if v, ok := it.attrs["value"]; ok {
				text = v
			}
			if kind != layout.KindTextarea {
				text = strings.TrimSpace(text)
			}
			b.SetText(text)
		}
		return b
	}

	for _, c := range it.items {
		switch {
		case c.isText():
			text := strings.TrimSpace(c.text)
			if text == "" {
				continue
			}
			t := layout.NewBox(layout.KindText, "")
			t.SetText(text)
			d.tags[t] = "#text"
			b.AppendChild(t)
		case c.tag == "style":
		default:
			if child := d.build(c); child != nil {
				b.AppendChild(child)
			}
		}
	}
	return b
}

func (d *Document) applyAttrs(b *layout.Box, it *item) {
	if v, ok := it.attrs["state"]; ok {
		st, err := style.ParseState(v)
		if err != nil {
			d.warn(fmt.Errorf("%s: %w", b, err))
		} else {
			b.SetState(st)
		}
	}
	if v, ok := it.attrs["style"]; ok {
		props, err := style.ParseInline(v)
		if err != nil {
			d.warn(fmt.Errorf("%s: style attribute: %w", b, err))
		}
		if len(props) > 0 {
			b.SetInline(props)
		}
	}
	if _, ok := it.attrs["hidden"]; ok {
		props := b.Inline()
		props[style.PropVisible] = style.Bool(false)
		b.SetInline(props)
	}

	var intrinsic layout.Extent
	for attr, dst := range map[string]*float64{"intrinsic-width": &intrinsic.Width, "intrinsic-height": &intrinsic.Height} {
		v, ok := it.attrs[attr]
		if !ok {
			continue
		}
		n, err := style.ParseLength(v)
		if err != nil || n < 0 {
			d.warn(fmt.Errorf("%s: %s=%q is not a non-negative length", b, attr, v))
			continue
		}
		*dst = n
	}
	if intrinsic != (layout.Extent{}) {
		b.SetIntrinsicSize(intrinsic)
	}
}
