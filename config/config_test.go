package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/ffplan.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/opt/ff/ff", cfg.Solver.Binary)
	assert.Equal(t, "/srv/pddl", cfg.Solver.WorkDir)
	assert.Equal(t, "domain.pddl", cfg.Solver.Domain)
	assert.Equal(t, "/srv/pddl/domain.pddl", cfg.Solver.DomainPath())
	assert.Equal(t, 2, cfg.Solver.Mode)
	assert.Equal(t, 45*time.Second, cfg.Solver.GetTimeout())

	assert.Equal(t, "/srv/pddl/template.pddl", cfg.TemplatePath())
	assert.Equal(t, "/tmp/problem.pddl", cfg.OutputPath())

	opts := cfg.Problem.Options()
	assert.Equal(t, []string{"(free-gripper)", "(handempty)"}, opts.Baseline)
	assert.Equal(t, "block", opts.TypeFor("cubes"))
	assert.Equal(t, "size(stack) >= 2", opts.GoalCondition)

	require.NotNil(t, cfg.Worker)
	assert.Equal(t, "plans", cfg.Worker.GetQueue())
	assert.Equal(t, 2, cfg.Worker.GetConcurrency())
	assert.Equal(t, time.Minute, cfg.Worker.GetShutdownTimeout())
	assert.Equal(t, 10*time.Second, cfg.Worker.GetHeartbeatInterval())
	assert.Equal(t, "redis://localhost:6379", cfg.Worker.GetRedisURL())
	assert.Equal(t, ":50051", cfg.Worker.HealthAddr)

	assert.True(t, cfg.Registry.Enabled())
	assert.Equal(t, "ffplan", cfg.Registry.GetNamespace())
	assert.Equal(t, 10*time.Second, cfg.Registry.GetTTL())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffplan.yml"), []byte("solver:\n  mode: 1\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Solver.Mode)

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadFromDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("solver:\n  work_dir: up\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, "up", cfg.Solver.WorkDir)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "./Metric-FF-v2.1/ff", cfg.Solver.Binary)
	assert.Equal(t, "pddl", cfg.Solver.WorkDir)
	assert.Equal(t, filepath.Join("pddl", "domain.pddl"), cfg.Solver.DomainPath())
	assert.Zero(t, cfg.Solver.GetTimeout())
	assert.Equal(t, filepath.Join("pddl", "problem_save.pddl"), cfg.TemplatePath())
	assert.Equal(t, filepath.Join("pddl", "problem_dummy.pddl"), cfg.OutputPath())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	assert.Nil(t, cfg.Worker)
	assert.Equal(t, 1, cfg.Worker.GetConcurrency())
	assert.Equal(t, "ffplan:requests", cfg.Worker.GetQueue())
	assert.False(t, cfg.Registry.Enabled())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvSolverBinary, "/usr/local/bin/ff")
	t.Setenv(EnvWorkDir, "/data/pddl")
	t.Setenv(EnvRedisURL, "redis://cache:6379/2")
	t.Setenv(EnvRegistryEndpoints, "etcd-0:2379, etcd-1:2379,")

	cfg, err := Parse([]byte("solver:\n  binary: ./ff\n  work_dir: local\n"))
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/ff", cfg.Solver.Binary)
	assert.Equal(t, "/data/pddl", cfg.Solver.WorkDir)
	require.NotNil(t, cfg.Worker)
	assert.Equal(t, "redis://cache:6379/2", cfg.Worker.GetRedisURL())
	require.True(t, cfg.Registry.Enabled())
	assert.Equal(t, []string{"etcd-0:2379", "etcd-1:2379"}, cfg.Registry.Endpoints)
	assert.False(t, cfg.Registry.TLSEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"negative mode", "solver:\n  mode: -1\n", "solver.mode"},
		{"bad timeout", "solver:\n  timeout: soon\n", "solver.timeout"},
		{"domain path", "solver:\n  domain: sub/domain.pddl\n", "solver.domain"},
		{"bad goal condition", "problem:\n  goal_condition: \"size(stack) +\"\n", "goal_condition"},
		{"non-bool goal condition", "problem:\n  goal_condition: size(stack)\n", "goal_condition"},
		{"log level", "log:\n  level: loud\n", "log.level"},
		{"log format", "log:\n  format: xml\n", "log.format"},
		{"concurrency", "worker:\n  concurrency: -2\n", "worker.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("solver: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFromDir_BrokenFileStopsSearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("solver:\n  work_dir: up\n"), 0o644))
	nested := filepath.Join(root, "a")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, FileName), []byte("solver:\n  mode: [oops\n"), 0o644))

	_, err := LoadFromDir(nested)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), filepath.Join(nested, FileName))
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("broken file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("solver:\n  mode: [oops\n"), 0o644))
		t.Chdir(dir)

		cfg, err := LoadOrDefault("")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("solver:\n  mode: 4\n"), 0o644))
		t.Chdir(dir)

		cfg, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Solver.Mode)
	})

	t.Run("explicit path", func(t *testing.T) {
		cfg, err := LoadOrDefault("testdata/ffplan.yaml")
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Solver.Mode)
	})
}
