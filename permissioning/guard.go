// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ContractExists reports false only when chain definitively has no code at addr.
// An unknown answer counts as present so that the call is still simulated.
func ContractExists(ctx context.Context, chain ChainState, addr common.Address, head common.Hash) bool {
	return chain.CodeAt(ctx, addr, head) != CodeAbsent
}
