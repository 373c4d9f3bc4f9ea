// Package view turns filter output into a declarative UI tree and
// serializes that tree for a terminal or as an HTML document.
//
// Interactive nodes declare what they do through an Action instead of
// holding callbacks, so a single dispatcher bound once on the host can
// serve every rebuilt tree.
package view

// Kind is a node's role in the tree
type Kind int

const (
	KindRoot Kind = iota
	KindToolbar
	KindInput
	KindToggle
	KindButton
	KindText
	KindSection
	KindCard
	KindAccount
	KindRole
	KindLink
	KindEmpty
)

// ActionKind identifies what activating a node does
type ActionKind string

const (
	ActionFavAccount    ActionKind = "fav-account"
	ActionFavRole       ActionKind = "fav-role"
	ActionExpand        ActionKind = "expand"
	ActionKeys          ActionKind = "keys"
	ActionExpandAll     ActionKind = "expand-all"
	ActionLaunch        ActionKind = "launch"
	ActionCopyURL       ActionKind = "copy-url"
	ActionFavoritesOnly ActionKind = "favorites-only"
	ActionAccountFilter ActionKind = "account-filter"
	ActionRoleFilter    ActionKind = "role-filter"
)

// Action is the declared behaviour of an interactive node
type Action struct {
	Kind        ActionKind
	AccountID   string
	AccountName string
	Handle      int
	Role        string
	URL         string
}

// Node is one element of the UI tree
type Node struct {
	Kind  Kind
	ID    string
	Class string
	Text  string

	// Inputs and toggles
	Placeholder string
	Value       string
	Checked     bool
	Disabled    bool

	// Focusable nodes are the rows a user can move between
	Focusable bool
	Focused   bool
	SelStart  int
	SelEnd    int

	Action   *Action
	Children []*Node
}

// Add appends children and returns n
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Walk visits n and its descendants in document order. Returning false
// skips a node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the node with the given ID
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Focusables lists focusable nodes in document order
func (n *Node) Focusables() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Focusable {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FocusedNode returns the focused node, if any
func (n *Node) FocusedNode() *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Focused {
			found = c
			return false
		}
		return true
	})
	return found
}

// ActionFor finds the action of the given kind declared by n or one of its
// descendants. It is how a delegated handler resolves a key press on a row
// into the control that handles it.
func (n *Node) ActionFor(kind ActionKind) *Action {
	var found *Action
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Action != nil && c.Action.Kind == kind && !c.Disabled {
			found = c.Action
			return false
		}
		return true
	})
	return found
}
