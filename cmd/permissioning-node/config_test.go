// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/permissioning/permissioning"
	"github.com/offchainlabs/permissioning/util/testhelpers"
)

const (
	testNodeIngress    = "0x0000000000000000000000000000000000009999"
	testAccountIngress = "0x0000000000000000000000000000000000008888"
)

func addressArgs(extra ...string) []string {
	return append([]string{
		"--permissioning.node-ingress-address", testNodeIngress,
		"--permissioning.account-ingress-address", testAccountIngress,
	}, extra...)
}

func TestParseConfigDefaults(t *testing.T) {
	config, err := parseConfig(addressArgs())
	require.NoError(t, err)
	expected := DefaultNodeConfig
	expected.Permissioning.NodeIngressAddress = testNodeIngress
	expected.Permissioning.AccountIngressAddress = testAccountIngress
	if diff := cmp.Diff(&expected, config, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestParseConfigSources(t *testing.T) {
	t.Setenv("PLUGIN_PERMISSIONING_ACCOUNT__INGRESS__ADDRESS", "0x0000000000000000000000000000000000007777")
	t.Setenv("PLUGIN_SIMULATOR_GAS__CAP", "1000")
	config, err := parseConfig([]string{
		"--permissioning.node-ingress-address", testNodeIngress,
		"--backend", BackendMemory,
		"--chain-id", "42",
	})
	require.NoError(t, err)
	require.Equal(t, "0x0000000000000000000000000000000000007777", config.Permissioning.AccountIngressAddress)
	require.Equal(t, uint64(1000), config.Simulator.GasCap)
	require.Equal(t, BackendMemory, config.Backend)
	require.Equal(t, uint64(42), config.ChainId)
}

func TestParseConfigLegacyEnv(t *testing.T) {
	t.Setenv("BESU_PLUGIN_PERMISSIONING_NODE_INGRESS_ADDRESS", testNodeIngress)
	t.Setenv("BESU_PLUGIN_PERMISSIONING_ACCOUNT_INGRESS_ADDRESS", testAccountIngress)
	config, err := parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, testNodeIngress, config.Permissioning.NodeIngressAddress)
	require.Equal(t, testAccountIngress, config.Permissioning.AccountIngressAddress)

	t.Setenv("PLUGIN_PERMISSIONING_NODE__INGRESS__ADDRESS", "0x0000000000000000000000000000000000007777")
	config, err = parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "0x0000000000000000000000000000000000007777", config.Permissioning.NodeIngressAddress)

	config, err = parseConfig([]string{"--permissioning.account-ingress-address", "0x0000000000000000000000000000000000006666"})
	require.NoError(t, err)
	require.Equal(t, "0x0000000000000000000000000000000000006666", config.Permissioning.AccountIngressAddress)
}

func TestParseConfigRejects(t *testing.T) {
	_, err := parseConfig(nil)
	var configErr *permissioning.ConfigurationError
	require.True(t, errors.As(err, &configErr), "got %v", err)

	_, err = parseConfig(addressArgs("--permissioning.node-ingress-address", "0x1234"))
	require.True(t, errors.As(err, &configErr), "got %v", err)
	require.Equal(t, "node-ingress-address", configErr.Field)

	_, err = parseConfig(addressArgs("--backend", "carrier-pigeon"))
	require.ErrorContains(t, err, "invalid backend")

	_, err = parseConfig(addressArgs("--chain-id", "0"))
	require.ErrorContains(t, err, "chain-id")

	_, err = parseConfig(addressArgs("--conf.string", `{"permissioning":{"ingress":"0x01"}}`))
	require.Error(t, err)

	_, err = parseConfig(addressArgs("--node.url", ""))
	require.Error(t, err)
}

func TestCanReload(t *testing.T) {
	config, err := parseConfig(addressArgs())
	require.NoError(t, err)

	hot := *config
	hot.Permissioning.NodeIngressAddress = "0x0000000000000000000000000000000000006666"
	hot.Simulator.GasCap = 1
	hot.Node.Timeout = time.Minute
	hot.WatchInterval = 0
	hot.LogLevel = "DEBUG"
	require.NoError(t, config.CanReload(&hot))

	cold := *config
	cold.Backend = BackendMemory
	require.ErrorContains(t, config.CanReload(&cold), "config.Backend")

	cold = *config
	cold.Permissioning.EnableNodeCheck = false
	require.ErrorContains(t, config.CanReload(&cold), "config.Permissioning.EnableNodeCheck")

	cold = *config
	cold.Node.URL = "http://10.0.0.1:8545"
	require.ErrorContains(t, config.CanReload(&cold), "config.Node.URL")
}

func TestLiveConfigReload(t *testing.T) {
	initial, err := parseConfig(addressArgs())
	require.NoError(t, err)
	live := NewLiveConfig(nil, initial, func(path string) string { return path })

	var hookCalls int
	live.setOnReloadHook(func(old, new *NodeConfig) error {
		hookCalls++
		require.Equal(t, testNodeIngress, old.Permissioning.NodeIngressAddress)
		return errors.New("hook failures are only logged")
	})

	next := *initial
	next.Permissioning.NodeIngressAddress = "0x0000000000000000000000000000000000006666"
	live.parse = func([]string) (*NodeConfig, error) { return &next, nil }
	require.NoError(t, live.Reload())
	require.Equal(t, 1, hookCalls)
	require.Equal(t, "0x0000000000000000000000000000000000006666", live.PermissioningConfig().NodeIngressAddress)

	illegal := next
	illegal.ChainId = 5
	live.parse = func([]string) (*NodeConfig, error) { return &illegal, nil }
	require.ErrorContains(t, live.Reload(), "illegal change")
	require.Equal(t, uint64(1337), live.Get().ChainId)

	live.parse = func([]string) (*NodeConfig, error) { return nil, errors.New("broken file") }
	require.ErrorContains(t, live.Reload(), "broken file")
}

func TestLiveConfigReloadsOnSignal(t *testing.T) {
	initial, err := parseConfig(addressArgs())
	require.NoError(t, err)
	live := NewLiveConfig(nil, initial, func(path string) string { return path })
	next := *initial
	next.Simulator.GasCap = 77
	live.parse = func([]string) (*NodeConfig, error) { return &next, nil }

	live.Start(context.Background())
	defer live.StopAndWait()
	live.signals <- syscall.SIGUSR1
	require.Eventually(t, func() bool {
		return live.SimulatorConfig().GasCap == 77
	}, 5*time.Second, 10*time.Millisecond)
}

func writeFile(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testhelpers.RequireImpl(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

// PUSH1 1 PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
const returnOneCode = "0x600160005260206000f3"

func TestReadGenesisAlloc(t *testing.T) {
	bare := writeFile(t, "alloc.json", `{"`+testNodeIngress+`":{"balance":"0x0","code":"`+returnOneCode+`"}}`)
	alloc, err := readGenesisAlloc(bare)
	require.NoError(t, err)
	require.Len(t, alloc, 1)
	require.Equal(t, common.FromHex(returnOneCode), alloc[common.HexToAddress(testNodeIngress)].Code)

	full := writeFile(t, "genesis.json", `{"config":{"chainId":1337},"alloc":{"`+testAccountIngress+`":{"balance":"0x1","code":"`+returnOneCode+`"}}}`)
	alloc, err = readGenesisAlloc(full)
	require.NoError(t, err)
	require.Contains(t, alloc, common.HexToAddress(testAccountIngress))

	_, err = readGenesisAlloc(writeFile(t, "broken.json", `[1, 2`))
	require.Error(t, err)
	_, err = readGenesisAlloc(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestMemoryBackendAndWatcher(t *testing.T) {
	logHandler := testhelpers.InitTestLog(t, log.LevelDebug)
	config, err := parseConfig(addressArgs(
		"--backend", BackendMemory,
		"--genesis-file", writeFile(t, "alloc.json", `{"`+testAccountIngress+`":{"balance":"0x0","code":"`+returnOneCode+`"}}`),
	))
	require.NoError(t, err)
	chainBackend, err := newMemoryBackend(config)
	require.NoError(t, err)
	defer chainBackend.close()

	watcher := NewContractWatcher(chainBackend.chain, func() *NodeConfig { return config })
	watcher.Check(context.Background(), &config.Permissioning)
	presence, ok := watcher.Presence(permissioning.AccountTransaction)
	require.True(t, ok)
	require.Equal(t, permissioning.CodePresent, presence)
	presence, ok = watcher.Presence(permissioning.NodeConnection)
	require.True(t, ok)
	require.Equal(t, permissioning.CodeAbsent, presence)
	require.True(t, logHandler.WasLogged("permissioning contract has no code"))

	plugin, err := permissioning.NewPlugin(func() *permissioning.Config { return &config.Permissioning }, chainBackend.chain, chainBackend.simulator)
	require.NoError(t, err)
	require.True(t, plugin.Engine().DecideTransaction(context.Background(), &permissioning.TransactionRequest{
		From: testhelpers.RandomAddress(),
	}))
}

func TestWatcherDisabledInterval(t *testing.T) {
	config, err := parseConfig(addressArgs("--backend", BackendMemory, "--watch-interval", "0"))
	require.NoError(t, err)
	chainBackend, err := newMemoryBackend(config)
	require.NoError(t, err)
	watcher := NewContractWatcher(chainBackend.chain, func() *NodeConfig { return config })
	require.Equal(t, watcherIdleInterval, watcher.update(context.Background()))
	_, ok := watcher.Presence(permissioning.NodeConnection)
	require.False(t, ok)
}
