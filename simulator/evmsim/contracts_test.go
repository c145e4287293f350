// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package evmsim

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/permissioning/permissioning"
)

// Hand assembled bytecode for the contracts the tests deploy.

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// returnWord stores word at memory 0 and returns it.
func returnWord(word common.Hash) []byte {
	return concat([]byte{0x7f}, word[:], []byte{0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3})
}

func allOnesContract() []byte {
	var word common.Hash
	for i := range word {
		word[i] = 0xff
	}
	return returnWord(word)
}

func boolContract(value bool) []byte {
	var word common.Hash
	if value {
		word[31] = 1
	}
	return returnWord(word)
}

func stopContract() []byte {
	return []byte{0x00}
}

// loopContract jumps to itself until it runs out of gas.
func loopContract() []byte {
	return []byte{0x5b, 0x60, 0x00, 0x56}
}

// revertContract reverts with Error(reason).
func revertContract(reason string) []byte {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	data := concat(crypto.Keccak256([]byte("Error(string)"))[:4], packed)
	if len(data) > 0xff {
		panic("revert reason too long")
	}
	size := byte(len(data))
	prefix := []byte{0x60, size, 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, size, 0x60, 0x00, 0xfd}
	return concat(prefix, data)
}

// selectorGatedContract returns all-ones when the call selector equals selector, and nothing otherwise.
func selectorGatedContract(selector permissioning.FunctionSelector) []byte {
	return concat(
		[]byte{0x60, 0x00, 0x35, 0x60, 0xe0, 0x1c, 0x63},
		selector[:],
		[]byte{0x14, 0x60, 0x10, 0x57, 0x00, 0x5b},
		allOnesContract(),
	)
}

// senderGatedContract returns ABI true when the first argument equals sender.
func senderGatedContract(sender common.Address) []byte {
	return concat(
		[]byte{0x60, 0x04, 0x35, 0x73},
		sender[:],
		[]byte{0x14, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3},
	)
}
