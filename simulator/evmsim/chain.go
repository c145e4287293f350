// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package evmsim runs permissioning calls on go-ethereum's EVM over an in-memory state.
package evmsim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/offchainlabs/permissioning/permissioning"
)

const DefaultGasCap uint64 = 50_000_000

type sealedHead struct {
	header *types.Header
	state  *state.StateDB
}

// Chain is a ChainState and Simulator backed by an in-memory state database.
// State changes accumulate in a pending state and become visible once sealed into a new head.
type Chain struct {
	config *params.ChainConfig
	gasCap uint64

	// mutex guards every field below. StateDB reads populate caches, so reads of a
	// sealed state also take the lock.
	mutex   sync.Mutex
	pending *state.StateDB
	heads   map[common.Hash]*sealedHead
	hashes  map[uint64]common.Hash
	head    *sealedHead

	simulations atomic.Int64
}

// NewChain creates a chain whose genesis head has an empty state.
func NewChain(config *params.ChainConfig, gasCap uint64) (*Chain, error) {
	if config == nil {
		config = params.AllEthashProtocolChanges
	}
	if gasCap == 0 {
		gasCap = DefaultGasCap
	}
	pending, err := state.New(types.EmptyRootHash, state.NewDatabase(rawdb.NewMemoryDatabase()), nil)
	if err != nil {
		return nil, err
	}
	c := &Chain{
		config:  config,
		gasCap:  gasCap,
		pending: pending,
		heads:   make(map[common.Hash]*sealedHead),
		hashes:  make(map[uint64]common.Hash),
	}
	c.Seal()
	return c, nil
}

func (c *Chain) SetCode(addr common.Address, code []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.SetCode(addr, code)
}

func (c *Chain) SetStorage(addr common.Address, key, value common.Hash) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.SetState(addr, key, value)
}

// ApplyAlloc installs the code and storage of alloc into the pending state. Balances are ignored.
func (c *Chain) ApplyAlloc(alloc core.GenesisAlloc) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for addr, account := range alloc {
		if len(account.Code) > 0 {
			c.pending.SetCode(addr, account.Code)
		}
		for key, value := range account.Storage {
			c.pending.SetState(addr, key, value)
		}
	}
}

// Seal snapshots the pending state into a new head and returns its hash.
func (c *Chain) Seal() common.Hash {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	root := c.pending.IntermediateRoot(true)
	header := &types.Header{
		Number:     new(big.Int),
		Root:       root,
		Difficulty: new(big.Int),
		GasLimit:   c.gasCap,
		BaseFee:    new(big.Int),
	}
	if c.head != nil {
		header.ParentHash = c.head.header.Hash()
		header.Number.Add(c.head.header.Number, common.Big1)
		header.Time = c.head.header.Time + 1
	}
	head := &sealedHead{header: header, state: c.pending.Copy()}
	hash := header.Hash()
	c.heads[hash] = head
	c.hashes[header.Number.Uint64()] = hash
	c.head = head
	log.Debug("sealed in-memory head", "number", header.Number, "hash", hash, "root", root)
	return hash
}

func (c *Chain) HeadHash(_ context.Context) (common.Hash, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.head.header.Hash(), nil
}

func (c *Chain) CodeAt(_ context.Context, addr common.Address, head common.Hash) permissioning.CodePresence {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	sealed, ok := c.heads[head]
	if !ok {
		return permissioning.CodeUnknown
	}
	if sealed.state.GetCodeSize(addr) > 0 {
		return permissioning.CodePresent
	}
	return permissioning.CodeAbsent
}

// Simulations returns how many calls were simulated.
func (c *Chain) Simulations() int64 {
	return c.simulations.Load()
}

func (c *Chain) snapshot(head common.Hash) (*types.Header, *state.StateDB, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	sealed, ok := c.heads[head]
	if !ok {
		return nil, nil, false
	}
	return sealed.header, sealed.state.Copy(), true
}

func (c *Chain) getHash(number uint64) common.Hash {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.hashes[number]
}

// Simulate executes call on a copy of the state at head. Nothing is committed.
func (c *Chain) Simulate(ctx context.Context, call *permissioning.SimulatedCall, head common.Hash, opts permissioning.SimulationOptions) permissioning.SimulationOutcome {
	c.simulations.Add(1)
	header, statedb, ok := c.snapshot(head)
	if !ok {
		log.Debug("simulation against unknown head", "head", head)
		return permissioning.NotExecutedOutcome()
	}

	from := call.From
	if opts.ValidateSignature {
		sender, err := types.Sender(types.LatestSignerForChainID(c.config.ChainID), call.Tx)
		if err != nil {
			return permissioning.InvalidOutcome(fmt.Sprintf("invalid signature: %v", err))
		}
		from = sender
	}

	gas := call.Gas()
	if gas == 0 || gas > c.gasCap {
		gas = c.gasCap
	}
	msg := &core.Message{
		From:              from,
		To:                call.Tx.To(),
		Nonce:             call.Tx.Nonce(),
		Value:             call.Tx.Value(),
		GasLimit:          gas,
		GasPrice:          new(big.Int),
		GasFeeCap:         new(big.Int),
		GasTipCap:         new(big.Int),
		Data:              call.Data(),
		SkipAccountChecks: true,
	}
	blockContext := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     c.getHash,
		Coinbase:    common.Address{},
		GasLimit:    gas,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  new(big.Int),
		BaseFee:     new(big.Int),
	}
	vmConfig := vm.Config{NoBaseFee: true}
	var tracer *logger.StructLogger
	if opts.Tracing {
		tracer = logger.NewStructLogger(nil)
		vmConfig.Tracer = tracer
	}
	evm := vm.NewEVM(blockContext, core.NewEVMTxContext(msg), statedb, c.config, vmConfig)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			evm.Cancel()
		case <-done:
		}
	}()

	result, err := core.ApplyMessage(evm, msg, new(core.GasPool).AddGas(gas))
	if tracer != nil {
		log.Trace("simulated call trace", "to", msg.To, "steps", len(tracer.StructLogs()))
	}
	if evm.Cancelled() {
		return permissioning.NotExecutedOutcome()
	}
	if err != nil {
		return permissioning.InvalidOutcome(err.Error())
	}
	if result.Failed() {
		if errors.Is(result.Err, vm.ErrExecutionReverted) {
			reason, unpackErr := abi.UnpackRevert(result.Revert())
			if unpackErr != nil {
				reason = ""
			}
			return permissioning.RevertedOutcome(reason)
		}
		return permissioning.RevertedOutcome(result.Err.Error())
	}
	return permissioning.SuccessOutcome(result.Return())
}
