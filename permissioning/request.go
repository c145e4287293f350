// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UnlimitedGas asks the simulator for as much gas as it is willing to give a call.
const UnlimitedGas uint64 = math.MaxUint64

// The placeholder signature lets signature aware code size and process the call.
// It is never verified and recovers to no meaningful account.
var (
	placeholderSigR, _ = new(big.Int).SetString("66397251408932042429874251838229702988618145381408295790259650671563847073199", 10)
	placeholderSigS, _ = new(big.Int).SetString("24729624138373455972486746091821238755870276413282629437244319694880507882088", 10)
	placeholderSigV    = byte(0)
)

// PlaceholderSignature returns the 65 byte [R || S || V] placeholder signature.
func PlaceholderSignature() []byte {
	sig := make([]byte, 65)
	placeholderSigR.FillBytes(sig[:32])
	placeholderSigS.FillBytes(sig[32:64])
	sig[64] = placeholderSigV
	return sig
}

// SimulatedCall is a read-only call transaction. It lives for one simulation only.
type SimulatedCall struct {
	// From is the zero address; nothing signs the call.
	From common.Address
	Tx   *types.Transaction
}

func (c *SimulatedCall) To() common.Address {
	if to := c.Tx.To(); to != nil {
		return *to
	}
	return common.Address{}
}

func (c *SimulatedCall) Data() []byte {
	return c.Tx.Data()
}

func (c *SimulatedCall) Gas() uint64 {
	return c.Tx.Gas()
}

// BuildSimulatedCall assembles an unsigned, zero value, zero gas price call of payload
// against contract.
func BuildSimulatedCall(contract common.Address, payload []byte) *SimulatedCall {
	to := contract
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: new(big.Int),
		Gas:      UnlimitedGas,
		To:       &to,
		Value:    new(big.Int),
		Data:     common.CopyBytes(payload),
	})
	if signed, err := tx.WithSignature(types.HomesteadSigner{}, PlaceholderSignature()); err == nil {
		tx = signed
	}
	return &SimulatedCall{Tx: tx}
}
