// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// CodePresence is the answer of a ChainState to "does this address have code".
type CodePresence uint8

const (
	CodeUnknown CodePresence = iota
	CodePresent
	CodeAbsent
)

func (p CodePresence) String() string {
	switch p {
	case CodePresent:
		return "present"
	case CodeAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// ChainState exposes the chain head and code lookups. Implementations must be safe
// for concurrent use and may block.
type ChainState interface {
	HeadHash(ctx context.Context) (common.Hash, error)
	CodeAt(ctx context.Context, addr common.Address, head common.Hash) CodePresence
}

type OutcomeStatus uint8

const (
	NotExecuted OutcomeStatus = iota
	Reverted
	Invalid
	Succeeded
)

func (s OutcomeStatus) String() string {
	switch s {
	case Reverted:
		return "reverted"
	case Invalid:
		return "invalid"
	case Succeeded:
		return "succeeded"
	default:
		return "not-executed"
	}
}

// SimulationOutcome is the result of simulating one call.
type SimulationOutcome struct {
	Status        OutcomeStatus
	Output        []byte
	RevertReason  string
	InvalidReason string
}

func NotExecutedOutcome() SimulationOutcome {
	return SimulationOutcome{Status: NotExecuted}
}

func RevertedOutcome(reason string) SimulationOutcome {
	return SimulationOutcome{Status: Reverted, RevertReason: reason}
}

func InvalidOutcome(reason string) SimulationOutcome {
	return SimulationOutcome{Status: Invalid, InvalidReason: reason}
}

func SuccessOutcome(output []byte) SimulationOutcome {
	return SimulationOutcome{Status: Succeeded, Output: output}
}

type SimulationOptions struct {
	Tracing           bool
	ValidateSignature bool
}

// decisionSimulationOptions are used for every permissioning call.
var decisionSimulationOptions = SimulationOptions{Tracing: false, ValidateSignature: false}

// Simulator executes a call against the state at head without committing anything.
// Implementations must be safe for concurrent use and may block.
type Simulator interface {
	Simulate(ctx context.Context, call *SimulatedCall, head common.Hash, opts SimulationOptions) SimulationOutcome
}
