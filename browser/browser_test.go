package browser

import (
	"testing"

	"ssoenhancer/portal"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCell struct {
	playwright.ElementHandle
	text string
}

func (c *fakeCell) TextContent() (string, error) {
	return c.text, nil
}

func cells(texts ...string) []playwright.ElementHandle {
	var out []playwright.ElementHandle
	for _, t := range texts {
		out = append(out, &fakeCell{text: t})
	}
	return out
}

func TestPickByHandle(t *testing.T) {
	list := cells("Prod 111111111111", "Dev 222222222222")

	got, err := pick(list, portal.Account{ID: "222222222222", Handle: 1})
	require.NoError(t, err)
	assert.Same(t, list[1], got)

	got, err = pick(list, portal.Account{Name: "no id", Handle: 0})
	require.NoError(t, err)
	assert.Same(t, list[0], got)
}

func TestPickFindsMovedAccount(t *testing.T) {
	list := cells("Dev 222222222222", "Prod 111111111111")

	got, err := pick(list, portal.Account{ID: "111111111111", Handle: 0})
	require.NoError(t, err)
	assert.Same(t, list[1], got)
}

func TestPickUnknownAccount(t *testing.T) {
	list := cells("Prod 111111111111")

	_, err := pick(list, portal.Account{ID: "333333333333", Name: "Sandbox", Handle: 0})
	assert.ErrorIs(t, err, portal.ErrUnknownAccount)

	_, err = pick(list, portal.Account{Name: "gone", Handle: 4})
	assert.ErrorIs(t, err, portal.ErrUnknownAccount)
}
