package alert

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "alerts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderReadsFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
warning_threshold: 70
critical_threshold: 90
hysteresis: 10
emit_cleared: true
`)

	l := NewLoader(path)
	cfg := l.Config()
	assert.Equal(t, 70, cfg.WarningThreshold)
	assert.Equal(t, 90, cfg.CriticalThreshold)
	assert.Equal(t, 10, cfg.Hysteresis)
	assert.True(t, cfg.EmitCleared)
}

func TestLoaderMissingFileFallsBack(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Equal(t, DefaultConfig(), l.Config())
}

func TestLoaderEmptyPathUsesDefaults(t *testing.T) {
	l := NewLoader("")
	assert.Equal(t, DefaultConfig(), l.Config())
}

func TestLoaderRejectsInvalidThresholds(t *testing.T) {
	// critical below warning is nonsense; keep the defaults.
	path := writeConfig(t, t.TempDir(), `
warning_threshold: 90
critical_threshold: 80
`)
	l := NewLoader(path)
	assert.Equal(t, DefaultConfig(), l.Config())
}

func TestLoaderPartialFileKeepsDefaultsForRest(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `warning_threshold: 60`)
	l := NewLoader(path)
	cfg := l.Config()
	assert.Equal(t, 60, cfg.WarningThreshold)
	assert.Equal(t, DefaultConfig().CriticalThreshold, cfg.CriticalThreshold)
	assert.Equal(t, DefaultConfig().Hysteresis, cfg.Hysteresis)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().validate())

	bad := DefaultConfig()
	bad.WarningThreshold = 0
	assert.Error(t, bad.validate())

	bad = DefaultConfig()
	bad.Hysteresis = -1
	assert.Error(t, bad.validate())

	bad = DefaultConfig()
	bad.CriticalThreshold = 101
	assert.Error(t, bad.validate())
}

func TestWatchHotReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
warning_threshold: 80
critical_threshold: 95
hysteresis: 5
`)

	l := NewLoader(path)
	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`
warning_threshold: 50
critical_threshold: 75
hysteresis: 5
`), 0o644))

	assert.Eventually(t, func() bool {
		return l.Config().WarningThreshold == 50
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatchKeepsPreviousOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
warning_threshold: 80
critical_threshold: 95
hysteresis: 5
`)

	l := NewLoader(path)
	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`warning_threshold: [broken`), 0o644))

	// Broken writes never replace the last good config.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 80, l.Config().WarningThreshold)
}
