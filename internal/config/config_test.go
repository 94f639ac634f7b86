package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFileFillsDefaultsForZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler: domain\nadapter: manta\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, SchedulerDomain, cfg.Scheduler)
	require.Equal(t, AdapterManta, cfg.Adapter)
	require.Equal(t, 512, cfg.Film.Width)
	require.Equal(t, 512, cfg.Film.Height)
	require.Greater(t, cfg.Threads, 0)
}

func TestValidateRejectsUnknownScheduler(t *testing.T) {
	cfg := Default()
	cfg.Scheduler = "quantum"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresPolicyForHybrid(t *testing.T) {
	cfg := Default()
	cfg.Scheduler = SchedulerHybrid
	require.Error(t, cfg.Validate())

	cfg.SchedulerPolicy = "greedy"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveFilm(t *testing.T) {
	cfg := Default()
	cfg.Film = Film{Width: 0, Height: 512}
	require.Error(t, cfg.Validate())
}
