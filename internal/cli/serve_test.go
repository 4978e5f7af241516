package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/dnslens/internal/config"
)

func TestServeApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cmd := &ServeCommand{Host: "0.0.0.0", Port: 8088, LogLevel: "warn", globals: &GlobalFlags{}}
	cmd.applyOverrides(cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	cmd = &ServeCommand{LogLevel: "warn", globals: &GlobalFlags{Verbose: true}}
	cmd.applyOverrides(cfg)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestServeUntilCancelled(t *testing.T) {
	store, _ := setupTestStore(t)

	cfg := config.DefaultConfig()
	cfg.Storage.Path = t.TempDir()
	cfg.Logging.Console = false

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	cmd := &ServeCommand{globals: &GlobalFlags{}, version: "test"}
	go func() { done <- cmd.serve(ctx, cfg, store, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Post(base+"/api/log/upload", "application/json",
		strings.NewReader("["+recordJSON("served.example", "benign", "Query")+"]"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/api/log?domain=served")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"totalCount":1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Storage.Path, "dnslens.log"), logPath)
	assert.FileExists(t, logPath)
}

func TestServeClosesListenerWhenStartupFails(t *testing.T) {
	store, _ := setupTestStore(t)

	// A regular file where the data directory should be makes the log
	// file unopenable.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	cfg := config.DefaultConfig()
	cfg.Storage.Path = blocker
	cfg.Logging.Console = false

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cmd := &ServeCommand{globals: &GlobalFlags{}, version: "test"}
	require.Error(t, cmd.serve(context.Background(), cfg, store, ln))

	accepted := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if conn != nil {
			conn.Close()
		}
		accepted <- err
	}()
	select {
	case err := <-accepted:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("listener still open after failed startup")
	}
}
