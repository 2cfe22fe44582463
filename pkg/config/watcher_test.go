package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_ReloadsOnFileChangeAndNotifiesCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hippograph.yaml")
	writeYAML(t, path, "store_path: /data/one.db\n")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	reloaded := make(chan *Config, 1)
	w.OnChange(func(c *Config) { reloaded <- c })

	writeYAML(t, path, "store_path: /data/two.db\n")

	select {
	case c := <-reloaded:
		assert.Equal(t, "/data/two.db", c.StorePath)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload callback")
	}
	assert.Equal(t, "/data/two.db", w.Config().StorePath)
}

func TestWatcher_InvalidYAMLAfterReloadKeepsPreviousConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hippograph.yaml")
	writeYAML(t, path, "store_path: /data/good.db\n")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	settled := make(chan struct{})
	go func() {
		time.Sleep(1500 * time.Millisecond)
		close(settled)
	}()

	writeYAML(t, path, "store_path: [not valid yaml\n")
	<-settled

	assert.Equal(t, "/data/good.db", w.Config().StorePath)
}
