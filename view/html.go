package view

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const stylesheet = `
body { font-family: system-ui, sans-serif; margin: 2rem; }
.sse-toolbar { display: flex; gap: 1rem; align-items: center; }
.sse-account { margin-top: .75rem; font-weight: 600; }
.sse-role { margin-left: 2rem; }
.sse-muted { color: #6b7280; }
.sse-fav, .sse-combo { color: #d97706; }
.sse-role-fav { color: #0891b2; }
.sse-card { display: block; }
`

// HTML writes tree as an HTML fragment. Interactive elements carry their
// action in data attributes so one delegated listener can serve them.
func HTML(w io.Writer, tree *Node) error {
	if err := html.Render(w, toHTML(tree)); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

// Document writes tree as a standalone HTML page
func Document(w io.Writer, title string, tree *Node) error {
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	titleNode := element(atom.Title)
	titleNode.AppendChild(text(title))
	head.AppendChild(titleNode)
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.RawNode, Data: stylesheet})
	head.AppendChild(style)

	body := element(atom.Body)
	h1 := element(atom.H1)
	h1.AppendChild(text(title))
	body.AppendChild(h1)
	body.AppendChild(toHTML(tree))

	root := element(atom.Html, attr("lang", "en"))
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("failed to render html document: %w", err)
	}
	return nil
}

func toHTML(n *Node) *html.Node {
	var el *html.Node

	switch n.Kind {
	case KindRoot:
		el = element(atom.Div)
	case KindToolbar:
		el = element(atom.Div)
	case KindSection:
		el = element(atom.Section)
		if n.Text != "" {
			h := element(atom.H2)
			h.AppendChild(text(n.Text))
			el.AppendChild(h)
		}
	case KindInput:
		el = element(atom.Label)
		el.AppendChild(text(n.Text + " "))
		in := element(atom.Input,
			attr("type", "text"),
			attr("value", n.Value),
			attr("placeholder", n.Placeholder),
		)
		in.Attr = append(in.Attr, actionAttrs(n.Action)...)
		el.AppendChild(in)
	case KindToggle:
		el = element(atom.Label)
		in := element(atom.Input, attr("type", "checkbox"))
		if n.Checked {
			in.Attr = append(in.Attr, attr("checked", ""))
		}
		in.Attr = append(in.Attr, actionAttrs(n.Action)...)
		el.AppendChild(in)
		el.AppendChild(text(" " + n.Text))
	case KindButton:
		el = element(atom.Button, attr("type", "button"))
		el.AppendChild(text(n.Text))
	case KindCard:
		el = element(atom.A, attr("href", actionURL(n.Action)))
		el.AppendChild(text(n.Text))
	case KindAccount, KindRole:
		el = element(atom.Div)
	case KindLink:
		if n.Action != nil && n.Action.Kind == ActionLaunch {
			el = element(atom.A, attr("href", n.Action.URL))
		} else {
			el = element(atom.Button, attr("type", "button"))
		}
		el.AppendChild(text(n.Text))
	case KindEmpty:
		el = element(atom.P)
		el.AppendChild(text(n.Text))
	default:
		el = element(atom.Span)
		el.AppendChild(text(n.Text))
	}

	if n.ID != "" {
		el.Attr = append(el.Attr, attr("id", n.ID))
	}
	el.Attr = append(el.Attr, attr("class", className(n)))
	if n.Disabled {
		el.Attr = append(el.Attr, attr("disabled", ""))
	}
	if n.Kind != KindInput && n.Kind != KindToggle {
		el.Attr = append(el.Attr, actionAttrs(n.Action)...)
	}

	for _, c := range n.Children {
		el.AppendChild(toHTML(c))
	}
	return el
}

var kindClass = map[Kind]string{
	KindRoot:    "sse-picker",
	KindToolbar: "sse-toolbar",
	KindInput:   "sse-input",
	KindToggle:  "sse-toggle",
	KindButton:  "sse-button",
	KindText:    "sse-text",
	KindSection: "sse-section",
	KindCard:    "sse-card",
	KindAccount: "sse-account",
	KindRole:    "sse-role",
	KindLink:    "sse-link",
	KindEmpty:   "sse-empty",
}

func className(n *Node) string {
	c := kindClass[n.Kind]
	if n.Class != "" {
		c += " sse-" + n.Class
	}
	return c
}

func actionAttrs(a *Action) []html.Attribute {
	if a == nil {
		return nil
	}
	attrs := []html.Attribute{attr("data-action", string(a.Kind))}
	if a.AccountID != "" {
		attrs = append(attrs, attr("data-account", a.AccountID))
	}
	if a.Kind == ActionExpand || a.Kind == ActionKeys {
		attrs = append(attrs, attr("data-handle", strconv.Itoa(a.Handle)))
	}
	if a.Role != "" {
		attrs = append(attrs, attr("data-role", a.Role))
	}
	return attrs
}

func actionURL(a *Action) string {
	if a == nil {
		return ""
	}
	return a.URL
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
