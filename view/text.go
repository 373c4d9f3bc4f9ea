package view

import (
	"strings"

	"ssoenhancer/styles"

	"github.com/charmbracelet/lipgloss"
)

// Text renders tree for the terminal, one focusable node per line. It
// returns the lines and the index of the focused line, or -1.
func Text(tree *Node) ([]string, int) {
	t := &textWriter{focus: -1}
	t.node(tree, 0)
	return t.lines, t.focus
}

type textWriter struct {
	lines []string
	focus int
}

func (t *textWriter) line(n *Node, s string) {
	prefix := "  "
	if n != nil && n.Focused {
		prefix = styles.FocusedRowStyle.Render("› ")
		t.focus = len(t.lines)
	}
	t.lines = append(t.lines, prefix+s)
}

func (t *textWriter) node(n *Node, depth int) {
	if n == nil {
		return
	}

	switch n.Kind {
	case KindRoot, KindToolbar:
		for _, c := range n.Children {
			t.node(c, depth)
		}
	case KindSection:
		if n.Text != "" {
			t.lines = append(t.lines, "")
			t.line(nil, indent(depth)+styles.SectionStyle.Render(n.Text))
		}
		for _, c := range n.Children {
			t.node(c, depth+1)
		}
	case KindInput:
		t.line(n, input(n))
	case KindToggle:
		box := "[ ]"
		if n.Checked {
			box = "[x]"
		}
		t.line(n, box+" "+label(n))
	case KindButton:
		t.line(n, button(n))
	case KindText, KindEmpty:
		t.line(n, indent(depth)+inline(n))
	case KindCard:
		t.line(n, indent(depth)+card(n))
	case KindAccount:
		t.line(n, row(n, ""))
	case KindRole:
		t.line(n, row(n, "    "))
	default:
		t.line(n, inline(n))
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", max(depth-1, 0))
}

func label(n *Node) string {
	if n.Focused {
		return styles.FocusedRowStyle.Render(n.Text)
	}
	return styles.TextStyle.Render(n.Text)
}

func input(n *Node) string {
	style := styles.InputStyle
	if n.Focused {
		style = styles.FocusedInputStyle
	}

	value := []rune(n.Value)
	var b strings.Builder
	switch {
	case n.Focused:
		b.WriteString(string(value[:n.SelStart]))
		if n.SelEnd > n.SelStart {
			b.WriteString(styles.CursorStyle.Render(string(value[n.SelStart:n.SelEnd])))
			b.WriteString(string(value[n.SelEnd:]))
		} else if n.SelStart < len(value) {
			b.WriteString(styles.CursorStyle.Render(string(value[n.SelStart])))
			b.WriteString(string(value[n.SelStart+1:]))
		} else {
			b.WriteString(styles.CursorStyle.Render(" "))
		}
	case len(value) == 0:
		b.WriteString(styles.MutedStyle.Render(n.Placeholder))
	default:
		b.WriteString(n.Value)
	}

	return label(n) + ":" + style.Render(b.String())
}

func button(n *Node) string {
	text := "[ " + n.Text + " ]"
	switch {
	case n.Disabled:
		return styles.MutedStyle.Render(text)
	case n.Focused:
		return styles.FocusedButtonStyle.Render(text)
	default:
		return styles.ButtonStyle.Render(text)
	}
}

func card(n *Node) string {
	marker := styles.MutedStyle.Render("•")
	if n.Class == "combo" {
		marker = styles.FavoriteStyle.Render("★")
	}
	text := styles.TextStyle.Render(n.Text)
	if n.Focused {
		text = styles.FocusedRowStyle.Render(n.Text)
	}
	return marker + " " + text
}

func row(n *Node, lead string) string {
	var parts []string
	for _, c := range n.Children {
		if s := inline(c); s != "" {
			parts = append(parts, s)
		}
	}
	return lead + strings.Join(parts, " ")
}

func inline(n *Node) string {
	if n.Text == "" {
		return ""
	}

	var style lipgloss.Style
	switch n.Kind {
	case KindButton:
		switch n.Class {
		case "fav", "combo":
			style = styles.FavoriteStyle
		case "role-fav":
			style = styles.RoleFavoriteStyle
		default:
			style = styles.MutedStyle
		}
	case KindLink:
		switch {
		case n.Disabled:
			return styles.DisabledStyle.Render(n.Text)
		case n.Class == "role":
			style = styles.LinkStyle
		default:
			return styles.MutedStyle.Render("[" + n.Text + "]")
		}
	default:
		switch n.Class {
		case "name":
			style = styles.NameStyle
		case "muted":
			style = styles.MutedStyle
		default:
			style = styles.TextStyle
		}
	}
	return style.Render(n.Text)
}
