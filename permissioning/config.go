// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	EnableNodeCheck       bool   `koanf:"enable-node-check"`
	NodeIngressAddress    string `koanf:"node-ingress-address" reload:"hot"`
	EnableAccountCheck    bool   `koanf:"enable-account-check"`
	AccountIngressAddress string `koanf:"account-ingress-address" reload:"hot"`
}

type ConfigFetcher func() *Config

var DefaultConfig = Config{
	EnableNodeCheck:       true,
	NodeIngressAddress:    "",
	EnableAccountCheck:    true,
	AccountIngressAddress: "",
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable-node-check", DefaultConfig.EnableNodeCheck, "register the node connection permissioning provider")
	f.String(prefix+".node-ingress-address", DefaultConfig.NodeIngressAddress, "address of the contract that decides whether a peer connection is allowed")
	f.Bool(prefix+".enable-account-check", DefaultConfig.EnableAccountCheck, "register the transaction permissioning provider")
	f.String(prefix+".account-ingress-address", DefaultConfig.AccountIngressAddress, "address of the contract that decides whether a transaction is allowed")
}

func (c *Config) Validate() error {
	for _, kind := range allCheckKinds {
		if !c.Enabled(kind) {
			continue
		}
		if _, err := c.Endpoint(kind); err != nil {
			return err
		}
	}
	if !c.EnableNodeCheck && !c.EnableAccountCheck {
		return &ConfigurationError{Field: "enable-node-check", Err: errors.New("no permissioning check is enabled")}
	}
	return nil
}

func (c *Config) Enabled(kind CheckKind) bool {
	switch kind {
	case NodeConnection:
		return c.EnableNodeCheck
	case AccountTransaction:
		return c.EnableAccountCheck
	default:
		return false
	}
}

func (c *Config) addressField(kind CheckKind) (string, string) {
	if kind == AccountTransaction {
		return "account-ingress-address", c.AccountIngressAddress
	}
	return "node-ingress-address", c.NodeIngressAddress
}

// ContractEndpoint is the contract consulted for one kind of check.
type ContractEndpoint struct {
	Kind    CheckKind
	Address common.Address
}

func (e ContractEndpoint) String() string {
	return fmt.Sprintf("%v@%v", e.Kind, e.Address)
}

// Endpoint parses the configured contract address of kind.
func (c *Config) Endpoint(kind CheckKind) (ContractEndpoint, error) {
	if !kind.valid() {
		return ContractEndpoint{}, &ConfigurationError{Field: "kind", Value: kind.String(), Err: errors.New("unknown check kind")}
	}
	field, value := c.addressField(kind)
	if value == "" {
		return ContractEndpoint{}, &ConfigurationError{Field: field, Err: errors.New("contract address is required")}
	}
	if !common.IsHexAddress(value) {
		return ContractEndpoint{}, &ConfigurationError{Field: field, Value: value, Err: errors.New("not a 20 byte hex address")}
	}
	return ContractEndpoint{Kind: kind, Address: common.HexToAddress(value)}, nil
}
