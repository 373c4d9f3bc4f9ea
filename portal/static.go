package portal

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"ssoenhancer/utils"
)

// StaticPage is a saved copy of the portal page. It can be read and
// launched from but its controls cannot be clicked.
type StaticPage struct {
	url     string
	content []byte
	reader  Reader
	open    func(string) error
}

// NewStaticPage wraps page markup. url is reported by URL and used as the
// start URL for console links.
func NewStaticPage(url string, content []byte) *StaticPage {
	return &StaticPage{
		url:     url,
		content: content,
		reader:  Reader{StartURL: url},
		open:    utils.OpenBrowser,
	}
}

// LoadStaticPage reads a saved portal page from disk
func LoadStaticPage(path, url string) (*StaticPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved page: %w", err)
	}
	return NewStaticPage(url, data), nil
}

// WithOpener replaces the function used to open console URLs
func (p *StaticPage) WithOpener(open func(string) error) *StaticPage {
	p.open = open
	return p
}

func (p *StaticPage) Snapshot(ctx context.Context) ([]Account, error) {
	return p.reader.Parse(bytes.NewReader(p.content))
}

func (p *StaticPage) Expand(ctx context.Context, acc Account) error {
	return ErrReadOnly
}

func (p *StaticPage) GenerateKeys(ctx context.Context, acc Account, role Role) error {
	return ErrReadOnly
}

func (p *StaticPage) Launch(ctx context.Context, url string) error {
	if err := p.open(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func (p *StaticPage) URL() string {
	return p.url
}

// ReadOnly reports that the page's controls cannot be clicked
func (p *StaticPage) ReadOnly() bool {
	return true
}
