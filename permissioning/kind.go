// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import "fmt"

// CheckKind selects the contract, selector, payload shape and result policy of a check.
type CheckKind uint8

const (
	NodeConnection CheckKind = iota
	AccountTransaction
)

var allCheckKinds = []CheckKind{NodeConnection, AccountTransaction}

func (k CheckKind) String() string {
	switch k {
	case NodeConnection:
		return "node-connection"
	case AccountTransaction:
		return "account-transaction"
	default:
		return fmt.Sprintf("unknown-check-kind(%d)", uint8(k))
	}
}

func (k CheckKind) valid() bool {
	return k == NodeConnection || k == AccountTransaction
}
