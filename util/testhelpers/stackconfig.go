// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import "github.com/ethereum/go-ethereum/node"

// CreateStackConfigForTest returns an ephemeral node config serving modules over
// HTTP on a random local port.
func CreateStackConfigForTest(dataDir string, modules ...string) *node.Config {
	stackConf := node.DefaultConfig
	stackConf.DataDir = dataDir
	stackConf.UseLightweightKDF = true
	stackConf.WSPort = 0
	stackConf.WSHost = ""
	stackConf.HTTPPort = 0
	stackConf.HTTPHost = "127.0.0.1"
	stackConf.HTTPModules = append([]string{}, modules...)
	stackConf.AuthPort = 0
	stackConf.P2P.NoDiscovery = true
	stackConf.P2P.NoDial = true
	stackConf.P2P.ListenAddr = ""
	stackConf.P2P.NAT = nil
	return &stackConf
}
