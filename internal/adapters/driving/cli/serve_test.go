package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_NeedsServices(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.Equal(t, "true", serveCmd.Annotations[annotationServices])
	assert.Contains(t, serveCmd.Long, "/api/retrieve")
}

func TestServeCmd_HasAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestServeCmd_HasWatchFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("watch")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestRefreshOnChange(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()

	changes := make(chan []string, 2)
	changes <- []string{"docs/a.json"}
	changes <- []string{"docs/b.md", "docs/c.txt"}
	close(changes)

	resets := 0
	refreshOnChange(context.Background(), changes, func() error {
		resets++
		return nil
	})

	assert.Equal(t, 2, mock.refreshes)
	assert.Equal(t, 2, resets)
}

func TestRefreshOnChange_SkipsResetOnRefreshError(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()
	mock.refreshErr = errors.New("store locked")

	changes := make(chan []string, 1)
	changes <- []string{"docs/a.json"}
	close(changes)

	resets := 0
	refreshOnChange(context.Background(), changes, func() error {
		resets++
		return nil
	})

	assert.Equal(t, 1, mock.refreshes)
	assert.Zero(t, resets)
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
	assert.Equal(t, "true", mcpServeCmd.Annotations[annotationServices])
}

func TestMCPCmd_HasServeSubcommand(t *testing.T) {
	var names []string
	for _, c := range mcpCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
}
