package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return "-env=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, RoleHost, cfg.Role)
	assert.Equal(t, "host", cfg.ID)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "tcp", cfg.Transport)
	assert.Equal(t, 3*time.Second, cfg.GhostTTL)
	assert.Equal(t, 1200, cfg.Canvas().Width)
}

func TestLoadClientLink(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t), "-id", "c1", "localboard://10.0.0.5:8888/"})
	require.NoError(t, err)

	assert.Equal(t, RoleClient, cfg.Role)
	assert.Equal(t, "10.0.0.5:8888", cfg.HostAddr)
	assert.Equal(t, "c1", cfg.ID)
}

func TestLoadEnvOverridesDefaultsButNotFlags(t *testing.T) {
	t.Setenv("LOCALBOARD_PORT", "9000")
	t.Setenv("LOCALBOARD_GHOST_TTL", "750ms")
	t.Setenv("LOCALBOARD_TRANSPORT", "ws")

	cfg, err := Load([]string{noEnvFile(t), "-transport", "tcp"})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.GhostTTL)
	assert.Equal(t, "tcp", cfg.Transport)
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.env")
	require.NoError(t, os.WriteFile(path, []byte("LOCALBOARD_SNAPSHOT=bolt\nLOCALBOARD_BOLT_PATH=/tmp/b.db\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOCALBOARD_SNAPSHOT")
		os.Unsetenv("LOCALBOARD_BOLT_PATH")
	})

	cfg, err := Load([]string{"-env", path})
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.SnapshotBackend)
	assert.Equal(t, "/tmp/b.db", cfg.BoltPath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load([]string{noEnvFile(t), "-transport", "carrier-pigeon", "-snapshot", "tape"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
	assert.Contains(t, err.Error(), "tape")

	t.Setenv("LOCALBOARD_PORT", "many")
	_, err = Load([]string{noEnvFile(t)})
	assert.Error(t, err)
}

func TestLoadHostIDIsTheHostsIdentity(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t), "-host-id", "presenter"})
	require.NoError(t, err)
	assert.Equal(t, "presenter", cfg.ID)

	_, err = Load([]string{noEnvFile(t), "-host-id", "presenter", "-id", "presenter", "localboard://10.0.0.5:8888"})
	assert.Error(t, err, "a client cannot pose as the host")

	cfg, err = Load([]string{noEnvFile(t), "-snapshot", "badger", "-badger-dir", "/tmp/lb"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lb", cfg.BadgerDir)
}

func TestLoadIDNamesTheHost(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t), "-id", "presenter"})
	require.NoError(t, err)
	assert.Equal(t, RoleHost, cfg.Role)
	assert.Equal(t, "presenter", cfg.ID)
	assert.Equal(t, "presenter", cfg.HostID)

	cfg, err = Load([]string{noEnvFile(t), "-id", "presenter", "-host-id", "presenter"})
	require.NoError(t, err)
	assert.Equal(t, "presenter", cfg.HostID)

	_, err = Load([]string{noEnvFile(t), "-id", "other", "-host-id", "presenter"})
	assert.Error(t, err)

	t.Setenv("LOCALBOARD_HOST_ID", "presenter")
	_, err = Load([]string{noEnvFile(t), "-id", "other"})
	assert.Error(t, err)

	cfg, err = Load([]string{noEnvFile(t), "-id", "c1", "localboard://10.0.0.5:8888"})
	require.NoError(t, err)
	assert.Equal(t, "c1", cfg.ID)
	assert.Equal(t, "presenter", cfg.HostID, "clients keep the host id they were given")
}
