// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"bytes"
	"fmt"
)

// connectionAllowedSentinel is the only output accepted by the node ingress contract policy.
var connectionAllowedSentinel = bytes.Repeat([]byte{0xff}, 32)

// Interpret maps outcome to a verdict with the policy of kind, and gives the reason of a deny.
func Interpret(kind CheckKind, outcome SimulationOutcome) (bool, string) {
	if reason, ok := failureReason(outcome); !ok {
		return false, reason
	}
	switch kind {
	case NodeConnection:
		return interpretConnection(outcome.Output)
	case AccountTransaction:
		return interpretTransaction(outcome.Output)
	default:
		return false, fmt.Sprintf("unknown check kind %v", kind)
	}
}

func failureReason(outcome SimulationOutcome) (string, bool) {
	switch outcome.Status {
	case Succeeded:
		return "", true
	case NotExecuted:
		return "simulation not executed", false
	case Reverted:
		if outcome.RevertReason != "" {
			return "reverted: " + outcome.RevertReason, false
		}
		return "reverted", false
	case Invalid:
		if outcome.InvalidReason != "" {
			return "invalid: " + outcome.InvalidReason, false
		}
		return "invalid", false
	default:
		return fmt.Sprintf("unknown outcome status %d", outcome.Status), false
	}
}

func interpretConnection(output []byte) (bool, string) {
	if len(output) == 0 {
		return false, "empty output"
	}
	if !bytes.Equal(output, connectionAllowedSentinel) {
		return false, "connection not allowed"
	}
	return true, ""
}

func interpretTransaction(output []byte) (bool, string) {
	if len(output) == 0 {
		return false, "empty output"
	}
	if output[len(output)-1] != 1 {
		return false, "transaction not allowed"
	}
	return true, ""
}
