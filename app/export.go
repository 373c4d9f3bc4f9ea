package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"ssoenhancer/filter"
	"ssoenhancer/prefs"
	"ssoenhancer/view"
)

// FormatHTML renders the favorites as a standalone page
const FormatHTML = "html"

// Export writes the favorites backup in the given format: json, yaml or
// html
func (c *Controller) Export(w io.Writer, format string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.EqualFold(format, FormatHTML) {
		return c.exportHTML(w, at)
	}

	f, err := prefs.ParseFormat(strings.ToLower(format))
	if err != nil {
		return err
	}
	return prefs.NewExport(c.store, c.page.URL(), c.accounts, at).Write(w, f)
}

func (c *Controller) exportHTML(w io.Writer, at time.Time) error {
	favs := c.store.Favorites()
	criteria := filter.Criteria{FavoritesOnly: true}

	tree := view.Build(view.State{
		Criteria:  criteria,
		View:      filter.Apply(c.accounts, favs, criteria),
		Quick:     filter.Quick(c.accounts, favs, c.store.Usage(), c.limits),
		Favorites: favs,
		ReadOnly:  true,
	})
	startURL, _, _ := strings.Cut(c.page.URL(), "#")
	tree.Add(view.Saved(favs.Document(), c.store.Usage(), startURL))

	title := "SSO favorites " + at.UTC().Format(time.RFC3339)
	return view.Document(w, title, tree)
}

// Import replaces the favorites with those of an exported document
func (c *Controller) Import(r io.Reader, format string) error {
	f, err := prefs.ParseFormat(strings.ToLower(format))
	if err != nil {
		return err
	}
	e, err := prefs.ReadExport(r, f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Import(e); err != nil {
		return fmt.Errorf("failed to import favorites: %w", err)
	}
	c.render()
	return nil
}
