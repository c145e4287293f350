// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/permissioning/permissioning"
	"github.com/offchainlabs/permissioning/util/stopwaiter"
)

// recheck period while watching is disabled, so that a reload enabling it is noticed
const watcherIdleInterval = 10 * time.Second

var watchedKinds = []permissioning.CheckKind{permissioning.NodeConnection, permissioning.AccountTransaction}

var deployedGauges = map[permissioning.CheckKind]metrics.Gauge{}

func init() {
	for _, kind := range watchedKinds {
		deployedGauges[kind] = metrics.NewRegisteredGauge("permissioning/"+kind.String()+"/deployed", nil)
	}
}

// ContractWatcher periodically reports whether the configured contracts have code at the
// chain head. A check whose contract is absent allows everything, so an absent contract
// is logged as a warning.
type ContractWatcher struct {
	stopwaiter.StopWaiter

	chain    permissioning.ChainState
	config   func() *NodeConfig
	mutex    sync.Mutex
	presence map[permissioning.CheckKind]permissioning.CodePresence
}

func NewContractWatcher(chain permissioning.ChainState, config func() *NodeConfig) *ContractWatcher {
	return &ContractWatcher{
		chain:    chain,
		config:   config,
		presence: make(map[permissioning.CheckKind]permissioning.CodePresence),
	}
}

func (w *ContractWatcher) Start(ctx context.Context) {
	w.StopWaiter.Start(ctx, w)
	w.CallIteratively(w.update)
}

func (w *ContractWatcher) update(ctx context.Context) time.Duration {
	config := w.config()
	if config.WatchInterval == 0 {
		return watcherIdleInterval
	}
	w.Check(ctx, &config.Permissioning)
	return config.WatchInterval
}

// Check inspects the contracts of every enabled check once. Changes in presence are
// logged at info, absence at warn on every pass.
func (w *ContractWatcher) Check(ctx context.Context, config *permissioning.Config) {
	head, err := w.chain.HeadHash(ctx)
	if err != nil {
		log.Warn("unable to read chain head for contract watch", "err", err)
		return
	}
	for _, kind := range watchedKinds {
		if !config.Enabled(kind) {
			continue
		}
		endpoint, err := config.Endpoint(kind)
		if err != nil {
			log.Error("invalid permissioning contract address", "kind", kind, "err", err)
			continue
		}
		presence := w.chain.CodeAt(ctx, endpoint.Address, head)
		switch presence {
		case permissioning.CodePresent:
			deployedGauges[kind].Update(1)
		case permissioning.CodeAbsent:
			deployedGauges[kind].Update(0)
			log.Warn("permissioning contract has no code, checks of this kind allow everything", "kind", kind, "contract", endpoint.Address, "head", head)
		default:
			log.Debug("permissioning contract code could not be read", "kind", kind, "contract", endpoint.Address, "head", head)
		}
		w.mutex.Lock()
		previous, seen := w.presence[kind]
		w.presence[kind] = presence
		w.mutex.Unlock()
		if seen && previous != presence {
			log.Info("permissioning contract presence changed", "kind", kind, "contract", endpoint.Address, "from", previous, "to", presence)
		}
	}
}

// Presence returns the last observed presence of the contract of kind.
func (w *ContractWatcher) Presence(kind permissioning.CheckKind) (permissioning.CodePresence, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	presence, ok := w.presence[kind]
	return presence, ok
}
