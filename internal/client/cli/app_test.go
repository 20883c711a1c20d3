package cli

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReadsUntilExitAndCloses(t *testing.T) {
	stubInputs(t, "alice", []byte("secret123"))
	fc := &fakeClient{}
	app, out := newTestApp(fc, "login\nwhoami\nexit\n")

	require.NoError(t, app.Run(context.Background()))
	assert.True(t, fc.closed)
	assert.Contains(t, out.String(), "Welcome to gophauth CLI")
	assert.Contains(t, out.String(), "gophauth (alice)> ")
	assert.Contains(t, out.String(), "Bye!")
}

func TestNewApp(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	app, err := NewApp(cfg)
	require.NoError(t, err)
	assert.False(t, app.isLoggedIn())
	assert.NoError(t, app.client.Close())
}
