// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package rpcsim answers chain state queries and simulates permissioning calls through the
// JSON-RPC API of an execution node.
package rpcsim

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/offchainlabs/permissioning/permissioning"
)

type Config struct {
	GasCap        uint64 `koanf:"gas-cap" reload:"hot"`
	CodeCacheSize int    `koanf:"code-cache-size"`
}

type ConfigFetcher func() *Config

var DefaultConfig = Config{
	GasCap:        50_000_000,
	CodeCacheSize: 1024,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint64(prefix+".gas-cap", DefaultConfig.GasCap, "gas limit sent with each simulated permissioning call (0 lets the node choose)")
	f.Int(prefix+".code-cache-size", DefaultConfig.CodeCacheSize, "number of (contract, block hash) code lookups to remember (0 to disable)")
}

// Client is the subset of rpcclient.RpcClient used by the backend.
type Client interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

var ErrHeadNotFound = errors.New("latest block not found")

// Backend is a ChainState and Simulator over an execution node's JSON-RPC API.
type Backend struct {
	client    Client
	config    ConfigFetcher
	codeCache *lru.Cache[codeKey, permissioning.CodePresence]
}

// codeKey identifies code by block hash, which makes the cached answer immutable.
type codeKey struct {
	addr common.Address
	head common.Hash
}

func NewBackend(client Client, config ConfigFetcher) *Backend {
	backend := &Backend{client: client, config: config}
	if size := config().CodeCacheSize; size > 0 {
		// Can't fail because size > 0
		backend.codeCache, _ = lru.New[codeKey, permissioning.CodePresence](size)
	}
	return backend
}

type blockHead struct {
	Hash   common.Hash  `json:"hash"`
	Number *hexutil.Big `json:"number"`
}

func (b *Backend) HeadHash(ctx context.Context) (common.Hash, error) {
	var head *blockHead
	if err := b.client.CallContext(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return common.Hash{}, fmt.Errorf("eth_getBlockByNumber: %w", err)
	}
	if head == nil || head.Hash == (common.Hash{}) {
		return common.Hash{}, ErrHeadNotFound
	}
	return head.Hash, nil
}

// blockHashArg is the EIP-1898 block selector for head.
func blockHashArg(head common.Hash) map[string]interface{} {
	return map[string]interface{}{"blockHash": head, "requireCanonical": false}
}

// CodeAt reports whether addr has code at head. Failed lookups are CodeUnknown and are not cached.
func (b *Backend) CodeAt(ctx context.Context, addr common.Address, head common.Hash) permissioning.CodePresence {
	key := codeKey{addr: addr, head: head}
	if b.codeCache != nil {
		if presence, ok := b.codeCache.Get(key); ok {
			return presence
		}
	}
	var code hexutil.Bytes
	if err := b.client.CallContext(ctx, &code, "eth_getCode", addr, blockHashArg(head)); err != nil {
		log.Debug("could not read contract code", "address", addr, "head", head, "err", err)
		return permissioning.CodeUnknown
	}
	presence := permissioning.CodeAbsent
	if len(code) > 0 {
		presence = permissioning.CodePresent
	}
	if b.codeCache != nil {
		b.codeCache.Add(key, presence)
	}
	return presence
}

// CallArgs are the eth_call transaction fields the backend sends.
type CallArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Input    hexutil.Bytes   `json:"input"`
}

func (b *Backend) callArgs(call *permissioning.SimulatedCall, from common.Address) CallArgs {
	to := call.To()
	args := CallArgs{
		From:     from,
		To:       &to,
		GasPrice: (*hexutil.Big)(call.Tx.GasPrice()),
		Value:    (*hexutil.Big)(call.Tx.Value()),
		Input:    call.Data(),
	}
	gas := call.Gas()
	if gasCap := b.config().GasCap; gasCap > 0 && gas > gasCap {
		gas = gasCap
	}
	if gas != permissioning.UnlimitedGas {
		args.Gas = (*hexutil.Uint64)(&gas)
	}
	return args
}

func (b *Backend) Simulate(ctx context.Context, call *permissioning.SimulatedCall, head common.Hash, opts permissioning.SimulationOptions) permissioning.SimulationOutcome {
	from := call.From
	if opts.ValidateSignature {
		sender, err := types.Sender(types.LatestSignerForChainID(call.Tx.ChainId()), call.Tx)
		if err != nil {
			return permissioning.InvalidOutcome(fmt.Sprintf("invalid signature: %v", err))
		}
		from = sender
	}
	args := b.callArgs(call, from)
	if opts.Tracing {
		log.Trace("simulating permissioning call", "to", args.To, "gas", args.Gas, "input", args.Input, "head", head)
	}
	var output hexutil.Bytes
	err := b.client.CallContext(ctx, &output, "eth_call", args, blockHashArg(head))
	if err == nil {
		return permissioning.SuccessOutcome(output)
	}
	if IsExecutionReverted(err) {
		return permissioning.RevertedOutcome(RevertReason(err))
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return permissioning.InvalidOutcome(rpcErr.Error())
	}
	log.Debug("permissioning call not executed", "to", args.To, "head", head, "err", err)
	return permissioning.NotExecutedOutcome()
}
