// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"bytes"
	"errors"
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/permissioning/util/testhelpers"
)

type fakeHost struct {
	node NodePermissioningProvider
	tx   TransactionPermissioningProvider
}

func (h *fakeHost) RegisterNodePermissioningProvider(p NodePermissioningProvider) {
	h.node = p
}

func (h *fakeHost) RegisterTransactionPermissioningProvider(p TransactionPermissioningProvider) {
	h.tx = p
}

func TestNewPluginRejectsMalformedAddress(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.NodeIngressAddress = "0xnot-an-address"
	_, err := NewPlugin(func() *Config { return config }, &stubChain{}, &stubSimulator{})
	var confErr *ConfigurationError
	require.True(t, errors.As(err, &confErr))
}

func TestPluginRegistersProviders(t *testing.T) {
	t.Parallel()
	config := testConfig()
	chain := &stubChain{head: testhelpers.RandomHash(), presence: CodePresent}
	sim := &stubSimulator{outcome: SuccessOutcome(bytes.Repeat([]byte{0xff}, 32))}
	observed := &recordingObserver{}
	plugin, err := NewPlugin(func() *Config { return config }, chain, sim, observed)
	require.NoError(t, err)

	host := &fakeHost{}
	plugin.Register(host)
	plugin.Start()
	defer plugin.Stop()
	require.NotNil(t, host.node)
	require.NotNil(t, host.tx)

	src, _ := testhelpers.RandomNode(t, net.ParseIP("10.0.0.1"), 30303)
	dst, _ := testhelpers.RandomNode(t, net.ParseIP("10.0.0.2"), 30303)
	require.True(t, host.node(src, dst))

	to := testhelpers.RandomAddress()
	tx := types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1), Value: big.NewInt(0)})
	// all ones has a trailing 0xff byte, the transaction policy denies it
	require.False(t, host.tx(tx, testhelpers.RandomAddress()))
	require.False(t, host.tx(nil, testhelpers.RandomAddress()))
	require.Equal(t, 2, sim.calls())
	require.Equal(t, PathEncodingFailed, observed.last().Path)
}

func TestPluginRegistersOnlyEnabledChecks(t *testing.T) {
	t.Parallel()
	config := testConfig()
	config.EnableAccountCheck = false
	config.AccountIngressAddress = ""
	plugin, err := NewPlugin(func() *Config { return config }, &stubChain{}, &stubSimulator{})
	require.NoError(t, err)
	host := &fakeHost{}
	plugin.Register(host)
	require.NotNil(t, host.node)
	require.Nil(t, host.tx)
	require.NotNil(t, plugin.Engine())
}
