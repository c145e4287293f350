// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rpcsim

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var executionRevertedRegexp = regexp.MustCompile("(?i)execution reverted|VM execution error\\.?")

// IsExecutionReverted reports whether err is an execution client's answer that the call reverted.
// Clients either use JSON-RPC error code 3 or only say so in the message.
func IsExecutionReverted(err error) bool {
	if err == nil {
		return false
	}
	var errWithCode rpc.Error
	if errors.As(err, &errWithCode) && errWithCode.ErrorCode() == 3 {
		return true
	}
	return executionRevertedRegexp.MatchString(err.Error())
}

// RevertReason extracts the Error(string) reason of a reverted call, preferring the revert
// data attached to the error over the reason embedded in its message.
func RevertReason(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(data); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}
	msg := err.Error()
	if i := strings.Index(strings.ToLower(msg), "execution reverted: "); i >= 0 {
		return msg[i+len("execution reverted: "):]
	}
	return ""
}
