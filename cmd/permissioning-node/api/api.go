// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/p2p"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/offchainlabs/permissioning/permissioning"
)

const namespace = "permissioning"

// PermissioningAPI exposes the registered permissioning providers over JSON-RPC. A check
// whose provider was never registered is disabled and allows everything.
type PermissioningAPI struct {
	signer types.Signer

	mutex        sync.RWMutex
	nodeProvider permissioning.NodePermissioningProvider
	txProvider   permissioning.TransactionPermissioningProvider
}

func NewPermissioningAPI(chainID *big.Int) *PermissioningAPI {
	return &PermissioningAPI{signer: types.LatestSignerForChainID(chainID)}
}

func (a *PermissioningAPI) RegisterNodePermissioningProvider(provider permissioning.NodePermissioningProvider) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.nodeProvider = provider
}

func (a *PermissioningAPI) RegisterTransactionPermissioningProvider(provider permissioning.TransactionPermissioningProvider) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.txProvider = provider
}

func (a *PermissioningAPI) providers() (permissioning.NodePermissioningProvider, permissioning.TransactionPermissioningProvider) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.nodeProvider, a.txProvider
}

// ConnectionAllowed reports whether the node at source may connect with the node at destination.
func (a *PermissioningAPI) ConnectionAllowed(ctx context.Context, source string, destination string) (bool, error) {
	src, err := enode.ParseV4(source)
	if err != nil {
		return false, fmt.Errorf("invalid source enode: %w", err)
	}
	dst, err := enode.ParseV4(destination)
	if err != nil {
		return false, fmt.Errorf("invalid destination enode: %w", err)
	}
	provider, _ := a.providers()
	if provider == nil {
		return true, nil
	}
	return provider(src, dst), nil
}

// TransactionArgs are the transaction fields a permissioning check reads.
type TransactionArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Input    hexutil.Bytes   `json:"input"`
	Data     hexutil.Bytes   `json:"data"`
}

func (args *TransactionArgs) data() []byte {
	if args.Input != nil {
		return args.Input
	}
	return args.Data
}

func (args *TransactionArgs) toTransaction() *types.Transaction {
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	gasPrice := new(big.Int)
	if args.GasPrice != nil {
		gasPrice = args.GasPrice.ToInt()
	}
	return types.NewTx(&types.LegacyTx{
		To:       args.To,
		Value:    value,
		GasPrice: gasPrice,
		Gas:      uint64(args.Gas),
		Data:     args.data(),
	})
}

// TransactionAllowed reports whether a transaction with the given fields may be admitted.
func (a *PermissioningAPI) TransactionAllowed(ctx context.Context, args TransactionArgs) (bool, error) {
	if args.Input != nil && args.Data != nil && !bytes.Equal(args.Input, args.Data) {
		return false, errors.New(`both "data" and "input" are set and not equal`)
	}
	_, provider := a.providers()
	if provider == nil {
		return true, nil
	}
	return provider(args.toTransaction(), args.From), nil
}

// TransactionAllowedRaw decodes a signed transaction, recovers its sender and reports whether it may be admitted.
func (a *PermissioningAPI) TransactionAllowedRaw(ctx context.Context, raw hexutil.Bytes) (bool, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return false, fmt.Errorf("invalid transaction encoding: %w", err)
	}
	sender, err := types.Sender(a.signer, tx)
	if err != nil {
		return false, fmt.Errorf("invalid transaction signature: %w", err)
	}
	log.Trace("checking raw transaction", "hash", tx.Hash(), "sender", sender)
	_, provider := a.providers()
	if provider == nil {
		return true, nil
	}
	return provider(tx, sender), nil
}

var DefaultStackConfig = node.Config{
	DataDir:          "", // ephemeral
	HTTPPort:         node.DefaultHTTPPort,
	HTTPModules:      []string{namespace},
	HTTPHost:         node.DefaultHTTPHost,
	HTTPVirtualHosts: []string{"localhost"},
	HTTPTimeouts:     rpc.DefaultHTTPTimeouts,
	P2P: p2p.Config{
		ListenAddr:  "",
		NoDiscovery: true,
		NoDial:      true,
	},
}

// NewStack creates a node serving api under the permissioning namespace.
func NewStack(stackConfig *node.Config, api *PermissioningAPI) (*node.Node, error) {
	stack, err := node.New(stackConfig)
	if err != nil {
		return nil, err
	}
	apis := []rpc.API{{
		Namespace: namespace,
		Version:   "1.0",
		Service:   api,
		Public:    true,
	}}
	stack.RegisterAPIs(apis)
	return stack, nil
}
