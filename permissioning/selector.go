// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	NodeConnectionSignature     = "connectionAllowed(bytes32,bytes32,bytes16,uint16,bytes32,bytes32,bytes16,uint16)"
	AccountTransactionSignature = "transactionAllowed(address,address,uint256,uint256,uint256,bytes)"
)

// FunctionSelector is the 4 byte prefix that picks the contract function to run.
type FunctionSelector [4]byte

func (s FunctionSelector) Hex() string {
	return hexutil.Encode(s[:])
}

// Selector returns the first 4 bytes of the keccak256 hash of an ABI signature.
func Selector(signature string) FunctionSelector {
	var sel FunctionSelector
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

var (
	nodeConnectionSelector     = Selector(NodeConnectionSignature)
	accountTransactionSelector = Selector(AccountTransactionSignature)
)

// SelectorFor returns the precomputed selector of the contract function backing kind.
func SelectorFor(kind CheckKind) FunctionSelector {
	if kind == AccountTransaction {
		return accountTransactionSelector
	}
	return nodeConnectionSelector
}

// SignatureFor returns the canonical ABI signature backing kind.
func SignatureFor(kind CheckKind) string {
	if kind == AccountTransaction {
		return AccountTransactionSignature
	}
	return NodeConnectionSignature
}
