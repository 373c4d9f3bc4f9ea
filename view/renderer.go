package view

// Focus is the focused node and its text selection
type Focus struct {
	ID    string
	Start int
	End   int
}

// Renderer rebuilds the tree on request. A request that arrives while a
// render is in progress, for example from the commit callback, is
// deferred and runs once right after the current render finishes.
//
// Renderer is not safe for concurrent use; it belongs to the UI goroutine.
type Renderer struct {
	build  func() *Node
	commit func(*Node)

	rendering bool
	pending   bool

	tree    *Node
	focus   Focus
	renders int
}

// NewRenderer returns a renderer that builds trees with build and hands
// each finished tree to commit. commit may be nil.
func NewRenderer(build func() *Node, commit func(*Node)) *Renderer {
	return &Renderer{build: build, commit: commit}
}

// Request renders now, or after the in-progress render
func (r *Renderer) Request() {
	if r.rendering {
		r.pending = true
		return
	}

	r.rendering = true
	defer func() { r.rendering = false }()

	for {
		r.pending = false
		r.render()
		if !r.pending {
			return
		}
	}
}

func (r *Renderer) render() {
	focus := r.focus
	tree := r.build()
	r.focus = restoreFocus(tree, focus)
	r.tree = tree
	r.renders++
	if r.commit != nil {
		r.commit(tree)
	}
}

// Rendering reports whether a render is in progress
func (r *Renderer) Rendering() bool {
	return r.rendering
}

// Tree returns the last rendered tree
func (r *Renderer) Tree() *Node {
	return r.tree
}

// Renders counts completed renders
func (r *Renderer) Renders() int {
	return r.renders
}

// Focus returns the current focus
func (r *Renderer) Focus() Focus {
	return r.focus
}

// SetFocus records a new focus and applies it to the current tree
func (r *Renderer) SetFocus(f Focus) {
	if r.tree == nil {
		r.focus = f
		return
	}
	r.focus = restoreFocus(r.tree, f)
}

// Move shifts focus by delta focusable nodes, clamped to the ends
func (r *Renderer) Move(delta int) {
	if r.tree == nil {
		return
	}
	nodes := r.tree.Focusables()
	if len(nodes) == 0 {
		return
	}

	i := 0
	for j, n := range nodes {
		if n.ID == r.focus.ID {
			i = j
			break
		}
	}
	i = min(max(i+delta, 0), len(nodes)-1)

	n := nodes[i]
	end := len([]rune(n.Value))
	r.SetFocus(Focus{ID: n.ID, Start: end, End: end})
}

// restoreFocus marks the node with f's ID as focused and clamps the
// selection to its value. When the node is gone focus falls back to the
// first focusable node.
func restoreFocus(tree *Node, f Focus) Focus {
	tree.Walk(func(n *Node) bool {
		n.Focused = false
		n.SelStart, n.SelEnd = 0, 0
		return true
	})

	n := tree.Find(f.ID)
	if n == nil || !n.Focusable {
		nodes := tree.Focusables()
		if len(nodes) == 0 {
			return Focus{}
		}
		n = nodes[0]
		end := len([]rune(n.Value))
		f = Focus{ID: n.ID, Start: end, End: end}
	}

	size := len([]rune(n.Value))
	f.Start = min(max(f.Start, 0), size)
	f.End = min(max(f.End, f.Start), size)

	n.Focused = true
	n.SelStart, n.SelEnd = f.Start, f.End
	return f
}
