package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"ssoenhancer/config"
	"ssoenhancer/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := config.Default()
	settings.Portal.StartURL = "https://example.awsapps.com/start"
	return &env{
		manager:  config.NewManagerAt(t.TempDir()),
		settings: settings,
		logger:   logger,
		store:    prefs.Open(prefs.MemoryBlob{}, logger),
	}
}

func TestOfflineExportReadsSnapshot(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.store.ToggleCombo("111111111111", "Admin")
	require.NoError(t, err)

	ctl, err := offline(e, "portal/testdata/portal.html")
	require.NoError(t, err)
	require.Len(t, ctl.Accounts(), 3)

	var buf bytes.Buffer
	require.NoError(t, ctl.Export(&buf, "json", time.Now()))

	var doc prefs.Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Accounts, 3)
	assert.Equal(t, "111111111111", doc.Accounts[0].ID)
	assert.Equal(t, []string{"Admin"}, doc.Accounts[0].Favorites)
	assert.Equal(t, []string{"111111111111:Admin"}, doc.Favorites.Combos)
}

func TestOfflineWithoutSnapshot(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.store.ToggleAccount("222222222222")
	require.NoError(t, err)

	ctl, err := offline(e, "")
	require.NoError(t, err)
	assert.Empty(t, ctl.Accounts())

	var buf bytes.Buffer
	require.NoError(t, ctl.Export(&buf, "html", time.Now()))
	assert.Contains(t, buf.String(), `id="saved-account-222222222222"`)

	_, err = offline(e, "testdata/missing.html")
	assert.Error(t, err)
}
