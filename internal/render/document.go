// Package render turns grouped tabs into an abstract document tree and
// serializes that tree to a standalone HTML page.
package render

// Kind identifies the role of a Node in the document tree.
type Kind int

const (
	KindHeading Kind = iota + 1
	KindContainer
	KindParagraph
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindContainer:
		return "container"
	case KindParagraph:
		return "paragraph"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Container classes, one per grouping level.
const (
	ClassWindow = "window"
	ClassStack  = "stack"
	ClassHost   = "host"
)

// Node is one element of the output tree.
type Node struct {
	Kind     Kind
	Level    int    // heading level, 1-6
	Class    string // container level
	Key      string // group key a container was built for
	Text     string
	Href     string
	Children []*Node
}

// Document is the full page: head metadata plus body nodes.
type Document struct {
	Title   string
	Lang    string
	Charset string
	Style   string // empty when no style block is wanted
	Body    []*Node
}

// Walk calls fn for every node in depth-first order.
func (d *Document) Walk(fn func(*Node)) {
	var visit func([]*Node)
	visit = func(ns []*Node) {
		for _, n := range ns {
			fn(n)
			visit(n.Children)
		}
	}
	visit(d.Body)
}

// Find returns all nodes of the given kind, depth-first.
func (d *Document) Find(kind Kind) []*Node {
	var out []*Node
	d.Walk(func(n *Node) {
		if n.Kind == kind {
			out = append(out, n)
		}
	})
	return out
}

// Equal reports whether two documents have the same structure and content.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Title != b.Title || a.Lang != b.Lang || a.Charset != b.Charset || a.Style != b.Style {
		return false
	}
	return nodesEqual(a.Body, b.Body)
}

func nodesEqual(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Kind != y.Kind || x.Level != y.Level || x.Class != y.Class || x.Key != y.Key ||
			x.Text != y.Text || x.Href != y.Href {
			return false
		}
		if !nodesEqual(x.Children, y.Children) {
			return false
		}
	}
	return true
}
