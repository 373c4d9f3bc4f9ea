package prefs

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ssoenhancer/portal"

	"gopkg.in/yaml.v3"
)

// Format is an export document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Export is a backup of the favorites together with the context needed to
// read it: which accounts and roles were on the page and how they were used.
type Export struct {
	ExportedAt time.Time         `json:"exportedAt" yaml:"exportedAt"`
	StartURL   string            `json:"startUrl,omitempty" yaml:"startUrl,omitempty"`
	Favorites  Document          `json:"favorites" yaml:"favorites"`
	Accounts   []ExportedAccount `json:"accounts,omitempty" yaml:"accounts,omitempty"`
	Usage      []Usage           `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// ExportedAccount describes an account as it was on the page
type ExportedAccount struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Email     string   `json:"email,omitempty" yaml:"email,omitempty"`
	Favorite  bool     `json:"favorite" yaml:"favorite"`
	Roles     []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Favorites []string `json:"favoriteRoles,omitempty" yaml:"favoriteRoles,omitempty"`
}

// NewExport captures the store and the current accounts
func NewExport(s *Store, startURL string, accounts []portal.Account, at time.Time) Export {
	favs := s.Favorites()
	e := Export{
		ExportedAt: at.UTC(),
		StartURL:   startURL,
		Favorites:  favs.Document(),
		Usage:      s.Usage(),
	}

	for _, acc := range accounts {
		ea := ExportedAccount{
			ID:       acc.ID,
			Name:     acc.Name,
			Email:    acc.Email,
			Favorite: favs.IsAccount(acc.ID),
		}
		for _, role := range acc.Roles {
			ea.Roles = append(ea.Roles, role.Name)
			if favs.IsFavorite(acc.ID, role.Name) {
				ea.Favorites = append(ea.Favorites, role.Name)
			}
		}
		e.Accounts = append(e.Accounts, ea)
	}

	return e
}

// FavoriteSet returns the exported favorites as a record
func (e Export) FavoriteSet() *Favorites {
	return FromDocument(e.Favorites)
}

// Write encodes the export
func (e Export) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
	return nil
}

// ReadExport decodes an export written by Write
func ReadExport(r io.Reader, format Format) (Export, error) {
	var e Export
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&e); err != nil {
			return Export{}, fmt.Errorf("failed to decode export: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&e); err != nil {
			return Export{}, fmt.Errorf("failed to decode export: %w", err)
		}
	default:
		return Export{}, fmt.Errorf("unsupported export format: %s", format)
	}
	return e, nil
}

// Import replaces the store's favorites with the exported ones
func (s *Store) Import(e Export) error {
	return s.ReplaceFavorites(e.FavoriteSet())
}
