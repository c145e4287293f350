// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package confighelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Conf struct {
		Dump      bool     `koanf:"dump"`
		EnvPrefix string   `koanf:"env-prefix"`
		File      []string `koanf:"file"`
		String    string   `koanf:"string"`
	} `koanf:"conf"`
	LogLevel string        `koanf:"log-level"`
	Timeout  time.Duration `koanf:"timeout"`
	Section  struct {
		IngressAddress string `koanf:"ingress-address"`
		Enable         bool   `koanf:"enable"`
	} `koanf:"section"`
}

func testFlags() *flag.FlagSet {
	f := flag.NewFlagSet("", flag.ContinueOnError)
	f.Bool("conf.dump", false, "")
	f.String("conf.env-prefix", "TESTCONF", "")
	f.StringSlice("conf.file", nil, "")
	f.String("conf.string", "", "")
	f.String("log-level", "INFO", "")
	f.Duration("timeout", time.Second, "")
	f.String("section.ingress-address", "", "")
	f.Bool("section.enable", true, "")
	return f
}

func parse(t *testing.T, args ...string) (*testConfig, error) {
	t.Helper()
	k, err := BeginCommonParse(testFlags(), args)
	if err != nil {
		return nil, err
	}
	var config testConfig
	if err := EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func TestEnvKeyToConfigKey(t *testing.T) {
	require.Equal(t, "permissioning.node-ingress-address", EnvKeyToConfigKey("PLUGIN", "PLUGIN_PERMISSIONING_NODE__INGRESS__ADDRESS"))
	require.Equal(t, "log-level", EnvKeyToConfigKey("PLUGIN", "PLUGIN_LOG__LEVEL"))
	require.Equal(t, "PLUGIN_PERMISSIONING_NODE__INGRESS__ADDRESS", ConfigKeyToEnvKey("PLUGIN", "permissioning.node-ingress-address"))
	require.Equal(t, "log-level", EnvKeyToConfigKey("PLUGIN", ConfigKeyToEnvKey("PLUGIN", "log-level")))
}

func TestEnvAliases(t *testing.T) {
	aliases := map[string]string{"LEGACY_INGRESS_ADDRESS": "section.ingress-address"}
	parseWithAliases := func(args ...string) *testConfig {
		t.Helper()
		k, err := BeginCommonParseWithEnvAliases(testFlags(), args, aliases)
		require.NoError(t, err)
		var config testConfig
		require.NoError(t, EndCommonParse(k, &config))
		return &config
	}

	require.Equal(t, "", parseWithAliases().Section.IngressAddress)

	t.Setenv("LEGACY_INGRESS_ADDRESS", "0x01")
	require.Equal(t, "0x01", parseWithAliases().Section.IngressAddress)
	require.Equal(t, "0x01", parseWithAliases("--conf.string", `{"section":{"ingress-address":"0x03"}}`).Section.IngressAddress)
	require.Equal(t, "0x04", parseWithAliases("--section.ingress-address", "0x04").Section.IngressAddress)

	// plain BeginCommonParse ignores aliases
	config, err := parse(t)
	require.NoError(t, err)
	require.Equal(t, "", config.Section.IngressAddress)

	t.Setenv("TESTCONF_SECTION_INGRESS__ADDRESS", "0x02")
	require.Equal(t, "0x02", parseWithAliases().Section.IngressAddress)
}

func TestParsePriority(t *testing.T) {
	config, err := parse(t)
	require.NoError(t, err)
	require.Equal(t, "INFO", config.LogLevel)
	require.Equal(t, time.Second, config.Timeout)
	require.True(t, config.Section.Enable)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log-level":"DEBUG","timeout":"3s","section":{"ingress-address":"0x01"}}`), 0600))
	config, err = parse(t, "--conf.file", path)
	require.NoError(t, err)
	require.Equal(t, "DEBUG", config.LogLevel)
	require.Equal(t, 3*time.Second, config.Timeout)
	require.Equal(t, "0x01", config.Section.IngressAddress)

	config, err = parse(t, "--conf.file", path, "--conf.string", `{"section":{"ingress-address":"0x02"}}`)
	require.NoError(t, err)
	require.Equal(t, "0x02", config.Section.IngressAddress)

	t.Setenv("TESTCONF_SECTION_INGRESS__ADDRESS", "0x03")
	config, err = parse(t, "--conf.file", path)
	require.NoError(t, err)
	require.Equal(t, "0x03", config.Section.IngressAddress)

	config, err = parse(t, "--conf.file", path, "--section.ingress-address", "0x04", "--section.enable=false")
	require.NoError(t, err)
	require.Equal(t, "0x04", config.Section.IngressAddress)
	require.False(t, config.Section.Enable)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := parse(t, "--conf.string", `{"section":{"unknown":true}}`)
	require.Error(t, err)

	_, err = parse(t, "positional")
	require.Error(t, err)

	_, err = parse(t, "--version")
	require.ErrorIs(t, err, ErrVersion)
}

func TestDumpConfigClearsFields(t *testing.T) {
	k, err := BeginCommonParse(testFlags(), []string{"--conf.dump", "--section.ingress-address", "0x05"})
	require.NoError(t, err)
	require.NoError(t, DumpConfig(k, map[string]interface{}{"section.ingress-address": ""}))
	require.False(t, k.Bool("conf.dump"))
	require.Equal(t, "", k.String("section.ingress-address"))
}

func TestGetVersion(t *testing.T) {
	revision, stripped, _ := GetVersion()
	require.NotEmpty(t, revision)
	require.LessOrEqual(t, len(stripped), 8)
}
