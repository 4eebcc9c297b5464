package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverOptions struct {
	Addr string `mapstructure:"addr"`
}

type testOptions struct {
	Name   string        `mapstructure:"name"`
	Tags   []string      `mapstructure:"tags"`
	Server serverOptions `mapstructure:"server"`

	completed bool
	invalid   bool
}

func (o *testOptions) Flags() NamedFlagSets {
	var fss NamedFlagSets
	fs := fss.FlagSet("generic")
	fs.StringVar(&o.Name, "name", "default", "name")
	fs.StringSliceVar(&o.Tags, "tags", nil, "tags")
	fss.FlagSet("server").StringVar(&o.Server.Addr, "server.addr", ":8100", "addr")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	if o.invalid {
		return errors.New("invalid options")
	}
	return nil
}

func run(t *testing.T, opts *testOptions, args ...string) error {
	t.Helper()
	var ran bool
	a := NewApp(WithName("testapp"), WithOptions(opts), WithRunFunc(func() error {
		ran = true
		return nil
	}))
	a.Command().SetArgs(args)
	err := a.Command().Execute()
	if err == nil {
		assert.True(t, ran)
	}
	return err
}

func TestNamedFlagSetsOrder(t *testing.T) {
	fss := (&testOptions{}).Flags()
	assert.Equal(t, []string{"generic", "server"}, fss.Order)
	assert.NotNil(t, fss.FlagSets["server"].Lookup("server.addr"))
}

func TestConfigFileEnvExpansionAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "testapp.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: from-file\ntags: [a, b]\nserver:\n  addr: ${TESTAPP_LISTEN}\n"), 0o600))
	t.Setenv("TESTAPP_LISTEN", ":9999")

	opts := &testOptions{}
	require.NoError(t, run(t, opts, "-c", file, "--name", "from-flag"))

	assert.Equal(t, "from-flag", opts.Name)
	assert.Equal(t, ":9999", opts.Server.Addr)
	assert.Equal(t, []string{"a", "b"}, opts.Tags)
	assert.True(t, opts.completed)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("TESTAPP_SERVER_ADDR", ":7777")

	opts := &testOptions{}
	require.NoError(t, run(t, opts))

	assert.Equal(t, ":7777", opts.Server.Addr)
	assert.Equal(t, "default", opts.Name)
}

func TestSliceFlagNotDuplicated(t *testing.T) {
	opts := &testOptions{}
	require.NoError(t, run(t, opts, "--tags", "x,y"))
	assert.Equal(t, []string{"x", "y"}, opts.Tags)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	err := run(t, &testOptions{}, "-c", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidateErrorStopsRun(t *testing.T) {
	err := run(t, &testOptions{invalid: true})
	assert.ErrorContains(t, err, "invalid options")
}
