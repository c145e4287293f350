// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectorKnownValue(t *testing.T) {
	t.Parallel()
	require.Equal(t, "0xa9059cbb", Selector("transfer(address,uint256)").Hex())
}

func TestSelectorDeterministic(t *testing.T) {
	t.Parallel()
	first := Selector(NodeConnectionSignature)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Selector(NodeConnectionSignature))
	}
	require.Equal(t, first, SelectorFor(NodeConnection))
	require.Equal(t, Selector(AccountTransactionSignature), SelectorFor(AccountTransaction))
}

func TestSelectorChangesWithSignature(t *testing.T) {
	t.Parallel()
	altered := []byte(NodeConnectionSignature)
	altered[len("connectionAllowed(bytes")] = '1'
	require.NotEqual(t, Selector(NodeConnectionSignature), Selector(string(altered)))
	require.NotEqual(t, SelectorFor(NodeConnection), SelectorFor(AccountTransaction))
}

func TestSignatureFor(t *testing.T) {
	t.Parallel()
	require.Equal(t, NodeConnectionSignature, SignatureFor(NodeConnection))
	require.Equal(t, AccountTransactionSignature, SignatureFor(AccountTransaction))
}
