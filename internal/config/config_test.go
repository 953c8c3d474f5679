package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lazyslot/internal/config"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func load(t *testing.T, input config.LoadInput) (config.Config, error) {
	t.Helper()

	if input.Env == nil {
		input.Env = map[string]string{}
	}

	return config.Load(input)
}

func Test_Load_Returns_Defaults_When_No_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir})
	require.NoError(t, err)

	want := config.Default()
	want.PolicyValue = slot.Retry
	want.Delay = 50 * time.Millisecond
	want.EffectiveCwd = dir

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_Load_Reads_Project_File_With_Comments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `{
		// shared database
		"policy": "fail-fast",
		"workers": 8,
		"construct_delay": "1s",
		"fail_first": 0,
		"tracing": {"enabled": true, "exporter": "stdout"},
	}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir})
	require.NoError(t, err)

	require.Equal(t, slot.FailFast, cfg.PolicyValue)
	require.Equal(t, "fail-fast", cfg.Policy)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, time.Second, cfg.Delay)
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "stdout", cfg.Tracing.Exporter)
	require.Equal(t, "lazyslot", cfg.Tracing.ServiceName, "unset nested fields keep defaults")
	require.Equal(t, filepath.Join(dir, config.FileName), cfg.Sources.Project)
}

func Test_Load_Applies_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	writeFile(t, filepath.Join(xdg, "lazyslot", "config.json"), `{
		"workers": 3, "dsn": "global://", "fail_first": 2,
		"tracing": {"enabled": true, "exporter": "stdout"}
	}`)
	writeFile(t, filepath.Join(dir, config.FileName), `{"workers": 5, "tracing": {"service_name": "proj"}}`)

	zero := 0

	cfg, err := load(t, config.LoadInput{
		WorkDirOverride: dir,
		Env:             map[string]string{"XDG_CONFIG_HOME": xdg},
		Overrides:       config.Overrides{Policy: "failfast", FailFirst: &zero},
	})
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Workers, "project beats global")
	require.Equal(t, "global://", cfg.DSN, "global beats defaults")
	require.Equal(t, 0, cfg.FailFirst, "CLI beats files, even with zero")
	require.Equal(t, slot.FailFast, cfg.PolicyValue)
	require.Equal(t, filepath.Join(xdg, "lazyslot", "config.json"), cfg.Sources.Global)

	want := config.Tracing{Enabled: true, Exporter: "stdout", ServiceName: "proj"}
	if diff := cmp.Diff(want, cfg.Tracing); diff != "" {
		t.Fatalf("tracing fields not set by the project file must keep the global values (-want +got):\n%s", diff)
	}
}

func Test_Load_Keeps_Tracing_Enabled_When_Later_Layer_Omits_It(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	writeFile(t, filepath.Join(xdg, "lazyslot", "config.json"), `{"tracing": {"enabled": true}}`)
	writeFile(t, filepath.Join(dir, config.FileName), `{"tracing": {}}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir, Env: map[string]string{"XDG_CONFIG_HOME": xdg}})
	require.NoError(t, err)
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "none", cfg.Tracing.Exporter)
}

func Test_Load_Disables_Tracing_When_Later_Layer_Sets_False(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	writeFile(t, filepath.Join(xdg, "lazyslot", "config.json"), `{"tracing": {"enabled": true}}`)
	writeFile(t, filepath.Join(dir, config.FileName), `{"tracing": {"enabled": false}}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir, Env: map[string]string{"XDG_CONFIG_HOME": xdg}})
	require.NoError(t, err)
	require.False(t, cfg.Tracing.Enabled)
}

func Test_Load_Resolves_Trace_File_Against_Work_Dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `{"tracing": {"file_path": "traces/out.jsonl"}}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "traces", "out.jsonl"), cfg.Tracing.FilePath)
}

func Test_Load_Rejects_Zero_Workers_Override(t *testing.T) {
	t.Parallel()

	zero := 0

	_, err := load(t, config.LoadInput{
		WorkDirOverride: t.TempDir(),
		Overrides:       config.Overrides{Workers: &zero},
	})
	require.ErrorIs(t, err, config.ErrWorkersInvalid)
}

func Test_Load_Uses_Home_When_XDG_Unset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".config", "lazyslot", "config.json"), `{"dsn": "home://"}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir, Env: map[string]string{"HOME": home}})
	require.NoError(t, err)
	require.Equal(t, "home://", cfg.DSN)
}

func Test_Load_Explicit_Config_Replaces_Project_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `{"workers": 5}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"workers": 9}`)

	cfg, err := load(t, config.LoadInput{WorkDirOverride: dir, ConfigPath: "custom.json"})
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Workers)
	require.Equal(t, filepath.Join(dir, "custom.json"), cfg.Sources.Project)
}

func Test_Load_Returns_Error_When_Invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "BadPolicy", content: `{"policy": "maybe"}`, wantErr: config.ErrPolicyInvalid},
		{name: "ZeroWorkers", content: `{"workers": 0}`, wantErr: config.ErrWorkersInvalid},
		{name: "BadDelay", content: `{"construct_delay": "soon"}`, wantErr: config.ErrDelayInvalid},
		{name: "NegativeDelay", content: `{"construct_delay": "-1s"}`, wantErr: config.ErrDelayInvalid},
		{name: "NegativeFailFirst", content: `{"fail_first": -1}`, wantErr: config.ErrFailFirstInvalid},
		{name: "EmptyDSN", content: `{"dsn": ""}`, wantErr: config.ErrDSNEmpty},
		{name: "BadLogLevel", content: `{"log_level": "loud"}`, wantErr: config.ErrLogLevelInvalid},
		{name: "BadExporter", content: `{"tracing": {"exporter": "kafka"}}`, wantErr: config.ErrExporterInvalid},
		{name: "BadJSON", content: `{"workers": }`, wantErr: config.ErrConfigInvalid},
		{name: "WrongType", content: `{"workers": "many"}`, wantErr: config.ErrConfigInvalid},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.FileName), testCase.content)

			_, err := load(t, config.LoadInput{WorkDirOverride: dir})
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func Test_Load_Returns_Error_When_Explicit_File_Missing(t *testing.T) {
	t.Parallel()

	_, err := load(t, config.LoadInput{WorkDirOverride: t.TempDir(), ConfigPath: "nope.json"})
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func Test_Format_Omits_Computed_Fields(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, config.LoadInput{WorkDirOverride: t.TempDir()})
	require.NoError(t, err)

	out, err := config.Format(cfg)
	require.NoError(t, err)

	require.Contains(t, out, `"policy": "retry"`)
	require.NotContains(t, out, "EffectiveCwd")
	require.NotContains(t, out, "PolicyValue")
}

func Test_Default_Is_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, config.LoadInput{WorkDirOverride: t.TempDir()})
	require.NoError(t, err)

	if diff := cmp.Diff(config.Default().Tracing, cfg.Tracing, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("tracing mismatch (-want +got):\n%s", diff)
	}
}
