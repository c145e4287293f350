// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"errors"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
)

const (
	testNodeIngress    = "0x0000000000000000000000000000000000009999"
	testAccountIngress = "0x0000000000000000000000000000000000008888"
)

func testConfig() *Config {
	config := DefaultConfig
	config.NodeIngressAddress = testNodeIngress
	config.AccountIngressAddress = testAccountIngress
	return &config
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, testConfig().Validate())

	config := testConfig()
	config.NodeIngressAddress = "0x1234"
	err := config.Validate()
	var confErr *ConfigurationError
	require.True(t, errors.As(err, &confErr))
	require.Equal(t, "node-ingress-address", confErr.Field)
	require.Equal(t, "0x1234", confErr.Value)

	config = testConfig()
	config.AccountIngressAddress = "0xzz00000000000000000000000000000000008888"
	require.True(t, errors.As(config.Validate(), &confErr))
	require.Equal(t, "account-ingress-address", confErr.Field)

	config = testConfig()
	config.AccountIngressAddress = ""
	require.Error(t, config.Validate())
	config.EnableAccountCheck = false
	require.NoError(t, config.Validate())
	config.EnableNodeCheck = false
	require.Error(t, config.Validate())
}

func TestConfigEndpoint(t *testing.T) {
	t.Parallel()
	config := testConfig()
	endpoint, err := config.Endpoint(NodeConnection)
	require.NoError(t, err)
	require.Equal(t, ContractEndpoint{Kind: NodeConnection, Address: common.HexToAddress(testNodeIngress)}, endpoint)

	endpoint, err = config.Endpoint(AccountTransaction)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testAccountIngress), endpoint.Address)

	// no 0x prefix is accepted
	config.NodeIngressAddress = testNodeIngress[2:]
	endpoint, err = config.Endpoint(NodeConnection)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testNodeIngress), endpoint.Address)

	_, err = config.Endpoint(CheckKind(5))
	require.Error(t, err)
}

func TestConfigAddOptions(t *testing.T) {
	t.Parallel()
	f := flag.NewFlagSet("", flag.ContinueOnError)
	ConfigAddOptions("permissioning", f)
	require.NoError(t, f.Parse([]string{"--permissioning.node-ingress-address", testNodeIngress, "--permissioning.enable-account-check=false"}))
	value, err := f.GetString("permissioning.node-ingress-address")
	require.NoError(t, err)
	require.Equal(t, testNodeIngress, value)
	enabled, err := f.GetBool("permissioning.enable-account-check")
	require.NoError(t, err)
	require.False(t, enabled)
}
