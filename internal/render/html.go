package render

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MIMEType is the content type of serialized documents.
const MIMEType = "text/html; charset=utf-8"

var headingAtoms = [...]atom.Atom{atom.H1, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// WriteHTML serializes doc as a complete page, starting with a doctype.
func WriteHTML(w io.Writer, doc *Document) error {
	if err := html.Render(w, toHTML(doc)); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// HTML returns the serialized page as bytes.
func HTML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toHTML(doc *Document) *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	var htmlAttrs []html.Attribute
	if doc.Lang != "" {
		htmlAttrs = append(htmlAttrs, html.Attribute{Key: "lang", Val: doc.Lang})
	}
	page := element(atom.Html, htmlAttrs...)
	root.AppendChild(page)

	head := element(atom.Head)
	charset := doc.Charset
	if charset == "" {
		charset = "utf-8"
	}
	appendBlock(head, element(atom.Meta, html.Attribute{Key: "charset", Val: charset}))
	title := element(atom.Title)
	title.AppendChild(text(doc.Title))
	appendBlock(head, title)
	if doc.Style != "" {
		style := element(atom.Style)
		style.AppendChild(text(doc.Style))
		appendBlock(head, style)
	}
	appendBlock(page, head)

	body := element(atom.Body)
	for _, n := range doc.Body {
		appendBlock(body, convert(n))
	}
	appendBlock(page, body)
	return root
}

func convert(n *Node) *html.Node {
	switch n.Kind {
	case KindHeading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > maxHeadingLevel {
			level = maxHeadingLevel
		}
		h := element(headingAtoms[level])
		h.AppendChild(text(n.Text))
		return h
	case KindContainer:
		var attrs []html.Attribute
		if n.Class != "" {
			attrs = append(attrs, html.Attribute{Key: "class", Val: n.Class})
		}
		div := element(atom.Div, attrs...)
		for _, c := range n.Children {
			appendBlock(div, convert(c))
		}
		return div
	case KindParagraph:
		p := element(atom.P)
		for _, c := range n.Children {
			p.AppendChild(convert(c))
		}
		return p
	case KindLink:
		a := element(atom.A, html.Attribute{Key: "href", Val: n.Href})
		a.AppendChild(text(n.Text))
		return a
	default:
		return text(n.Text)
	}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendBlock adds child followed by a newline so the output stays readable.
func appendBlock(parent, child *html.Node) {
	parent.AppendChild(child)
	parent.AppendChild(text("\n"))
}
