// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"errors"
	"fmt"
)

// ErrSimulationUnavailable is reported when no simulation result could be produced.
var ErrSimulationUnavailable = errors.New("simulation unavailable")

// ConfigurationError is fatal at startup and aborts plugin activation.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid permissioning configuration %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid permissioning configuration %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// EncodingError means the arguments of a check could not be packed into a call payload.
type EncodingError struct {
	Kind  CheckKind
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("encoding %v payload: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("encoding %v payload field %s: %v", e.Kind, e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
