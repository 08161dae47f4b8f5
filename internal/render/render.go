package render

import (
	"github.com/dgnsrekt/tabexport/internal/tabs"
)

// Options controls presentation details that do not change structure.
type Options struct {
	Indent       bool
	WindowPrefix string
	StackPrefix  string
}

const maxHeadingLevel = 6

// IndentCSS is the style block injected when Options.Indent is set.
const IndentCSS = `.window, .stack, .host { margin-left: 4px; padding-left: 8px; border-left: 2px solid #ccc; }
.window > .stack, .stack > .host { margin-left: 8px; }
.host > p { margin: 2px 0; }`

// Render builds the document tree for grouped tabs. A level gets a label
// heading only when it has more than one bucket, and never for buckets that
// mean "not grouped" or "unclassified". With no tabs at all the page holds
// only the title.
func Render(g *tabs.Grouped, pageTitle string, opts Options) *Document {
	doc := &Document{
		Title:   pageTitle,
		Charset: "utf-8",
	}
	if opts.Indent {
		doc.Style = IndentCSS
	}
	doc.Body = append(doc.Body, heading(1, pageTitle))
	if tabs.Count(g) == 0 {
		return doc
	}

	multiWindow := g.Multi()
	for _, wk := range g.Keys() {
		stacks, _ := g.Get(wk)
		level := 2
		win := container(ClassWindow, string(wk))
		if multiWindow && wk != tabs.WindowAll {
			win.Children = append(win.Children, heading(level, opts.WindowPrefix+string(wk)))
			level++
		}
		win.Children = append(win.Children, renderStacks(stacks, level, opts)...)
		doc.Body = append(doc.Body, win)
	}
	return doc
}

func renderStacks(stacks *tabs.StackGroups, level int, opts Options) []*Node {
	var out []*Node
	multi := stacks.Multi()
	for _, sk := range stacks.Keys() {
		hosts, _ := stacks.Get(sk)
		lvl := level
		st := container(ClassStack, string(sk))
		if multi && sk != tabs.StackNone {
			st.Children = append(st.Children, heading(lvl, opts.StackPrefix+string(sk)))
			lvl++
		}
		st.Children = append(st.Children, renderHosts(hosts, lvl)...)
		out = append(out, st)
	}
	return out
}

func renderHosts(hosts *tabs.HostGroups, level int) []*Node {
	var out []*Node
	multi := hosts.Multi()
	for _, hk := range hosts.Keys() {
		leaf, _ := hosts.Get(hk)
		h := container(ClassHost, string(hk))
		if multi && hk != tabs.HostAll && hk != tabs.HostOther {
			h.Children = append(h.Children, heading(level, string(hk)))
		}
		for _, t := range tabs.SortedByIndex(leaf) {
			h.Children = append(h.Children, tabItem(t))
		}
		out = append(out, h)
	}
	return out
}

func heading(level int, text string) *Node {
	if level > maxHeadingLevel {
		level = maxHeadingLevel
	}
	return &Node{Kind: KindHeading, Level: level, Text: text}
}

func container(class, key string) *Node {
	return &Node{Kind: KindContainer, Class: class, Key: key}
}

func tabItem(t tabs.Tab) *Node {
	return &Node{
		Kind: KindParagraph,
		Children: []*Node{
			{Kind: KindLink, Href: t.URL, Text: t.Title},
		},
	}
}
