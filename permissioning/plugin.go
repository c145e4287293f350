// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"
)

// NodePermissioningProvider is called by the host before a peer connection is accepted.
type NodePermissioningProvider func(source, destination *enode.Node) bool

// TransactionPermissioningProvider is called by the host before a transaction is admitted.
type TransactionPermissioningProvider func(tx *types.Transaction, sender common.Address) bool

// Host is the part of the node that consumes permissioning providers.
type Host interface {
	RegisterNodePermissioningProvider(NodePermissioningProvider)
	RegisterTransactionPermissioningProvider(TransactionPermissioningProvider)
}

type Plugin struct {
	config ConfigFetcher
	engine *DecisionEngine
}

// NewPlugin validates the configuration and builds the decision engine. A
// *ConfigurationError aborts activation.
func NewPlugin(config ConfigFetcher, chain ChainState, simulator Simulator, observers ...Observer) (*Plugin, error) {
	if err := config().Validate(); err != nil {
		return nil, err
	}
	if len(observers) == 0 {
		observers = DefaultObservers()
	}
	return &Plugin{
		config: config,
		engine: NewDecisionEngine(config, chain, simulator, observers...),
	}, nil
}

func (p *Plugin) Engine() *DecisionEngine {
	return p.engine
}

// NodeProvider returns the host callback for connection checks.
func (p *Plugin) NodeProvider() NodePermissioningProvider {
	engine := p.engine
	return func(source, destination *enode.Node) bool {
		return engine.DecideNodes(context.Background(), source, destination)
	}
}

// TransactionProvider returns the host callback for transaction checks.
func (p *Plugin) TransactionProvider() TransactionPermissioningProvider {
	engine := p.engine
	return func(tx *types.Transaction, sender common.Address) bool {
		return engine.DecideSignedTransaction(context.Background(), tx, sender)
	}
}

// Register hands the providers of the enabled checks to host.
func (p *Plugin) Register(host Host) {
	config := p.config()
	if config.EnableNodeCheck {
		host.RegisterNodePermissioningProvider(p.NodeProvider())
		log.Info("registered node permissioning provider", "contract", config.NodeIngressAddress)
	}
	if config.EnableAccountCheck {
		host.RegisterTransactionPermissioningProvider(p.TransactionProvider())
		log.Info("registered transaction permissioning provider", "contract", config.AccountIngressAddress)
	}
}

func (p *Plugin) Start() {
	log.Info("permissioning plugin started")
}

func (p *Plugin) Stop() {
	log.Info("permissioning plugin stopped")
}
