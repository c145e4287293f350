// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"
)

// DecisionPath records how a decision was reached.
type DecisionPath uint8

const (
	PathSimulated DecisionPath = iota
	PathContractMissing
	PathEncodingFailed
	PathUnavailable
	PathMisconfigured
	PathPanicked
)

func (p DecisionPath) String() string {
	switch p {
	case PathSimulated:
		return "simulated"
	case PathContractMissing:
		return "contract-missing"
	case PathEncodingFailed:
		return "encoding-failed"
	case PathUnavailable:
		return "unavailable"
	case PathMisconfigured:
		return "misconfigured"
	case PathPanicked:
		return "panicked"
	default:
		return fmt.Sprintf("unknown-path(%d)", uint8(p))
	}
}

// Decision is the record of one permissioning check, handed to every Observer.
type Decision struct {
	Kind     CheckKind
	Subject  string
	Contract common.Address
	Head     common.Hash
	Path     DecisionPath
	Outcome  OutcomeStatus
	Allowed  bool
	Reason   string
	Err      error
	Duration time.Duration
}

// DecisionEngine answers permissioning checks by simulating a call to the configured
// contract at the chain head. It holds no mutable state and is safe for concurrent use.
type DecisionEngine struct {
	config    ConfigFetcher
	chain     ChainState
	simulator Simulator
	observers []Observer
}

func NewDecisionEngine(config ConfigFetcher, chain ChainState, simulator Simulator, observers ...Observer) *DecisionEngine {
	return &DecisionEngine{
		config:    config,
		chain:     chain,
		simulator: simulator,
		observers: observers,
	}
}

// Decide runs one check. It never panics, not even when an observer does; every
// failure other than a missing contract denies.
func (e *DecisionEngine) Decide(ctx context.Context, kind CheckKind, args interface{}) Decision {
	start := time.Now()
	d := e.decide(ctx, kind, args)
	d.Duration = time.Since(start)
	e.emit(&d)
	return d
}

func (e *DecisionEngine) decide(ctx context.Context, kind CheckKind, args interface{}) (d Decision) {
	d = Decision{Kind: kind, Subject: describe(kind, args), Outcome: NotExecuted}
	defer func() {
		if r := recover(); r != nil {
			d.Path = PathPanicked
			d.Allowed = false
			d.Err = fmt.Errorf("permissioning check panicked: %v", r)
			d.Reason = "internal error"
		}
	}()

	endpoint, err := e.config().Endpoint(kind)
	if err != nil {
		d.Path = PathMisconfigured
		d.Err = err
		d.Reason = "misconfigured"
		return d
	}
	d.Contract = endpoint.Address

	head, err := e.chain.HeadHash(ctx)
	if err != nil {
		d.Path = PathUnavailable
		d.Err = fmt.Errorf("%w: reading chain head: %w", ErrSimulationUnavailable, err)
		d.Reason = "chain head unavailable"
		return d
	}
	d.Head = head

	if !ContractExists(ctx, e.chain, endpoint.Address, head) {
		d.Path = PathContractMissing
		d.Allowed = true
		d.Reason = "no contract code at head"
		return d
	}

	payload, err := EncodePayload(kind, args)
	if err != nil {
		d.Path = PathEncodingFailed
		d.Err = err
		d.Reason = "payload encoding failed"
		return d
	}

	call := BuildSimulatedCall(endpoint.Address, payload)
	outcome := e.simulator.Simulate(ctx, call, head, decisionSimulationOptions)
	d.Path = PathSimulated
	d.Outcome = outcome.Status
	d.Allowed, d.Reason = Interpret(kind, outcome)
	if outcome.Status == NotExecuted {
		d.Path = PathUnavailable
		d.Err = ErrSimulationUnavailable
	}
	return d
}

func (e *DecisionEngine) emit(d *Decision) {
	for _, o := range e.observers {
		observe(o, d)
	}
}

// observe keeps a failing observer from reaching the host or the observers after it.
func observe(o Observer, d *Decision) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("permissioning observer panicked", "kind", d.Kind, "subject", d.Subject, "err", r)
		}
	}()
	o.Observe(d)
}

// reject emits a deny for a check whose arguments could not be formed.
func (e *DecisionEngine) reject(kind CheckKind, subject string, err error) bool {
	d := Decision{Kind: kind, Subject: subject, Path: PathEncodingFailed, Outcome: NotExecuted, Err: err, Reason: "invalid arguments"}
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		d.Err = &EncodingError{Kind: kind, Err: err}
	}
	e.emit(&d)
	return false
}

// DecideConnection reports whether source may connect with destination.
func (e *DecisionEngine) DecideConnection(ctx context.Context, source, destination Peer) bool {
	return e.Decide(ctx, NodeConnection, connectionArgs{Source: source, Destination: destination}).Allowed
}

// DecideTransaction reports whether tx may be admitted.
func (e *DecisionEngine) DecideTransaction(ctx context.Context, tx *TransactionRequest) bool {
	return e.Decide(ctx, AccountTransaction, tx).Allowed
}

// DecideNodes is DecideConnection for enode records.
func (e *DecisionEngine) DecideNodes(ctx context.Context, source, destination *enode.Node) bool {
	src, err := PeerFromNode(source)
	if err != nil {
		return e.reject(NodeConnection, fmt.Sprint(destination), &EncodingError{Kind: NodeConnection, Field: "source", Err: err})
	}
	dst, err := PeerFromNode(destination)
	if err != nil {
		return e.reject(NodeConnection, fmt.Sprint(destination), &EncodingError{Kind: NodeConnection, Field: "destination", Err: err})
	}
	return e.DecideConnection(ctx, src, dst)
}

// DecideSignedTransaction is DecideTransaction for a transaction with a known sender.
func (e *DecisionEngine) DecideSignedTransaction(ctx context.Context, tx *types.Transaction, sender common.Address) bool {
	if tx == nil {
		return e.reject(AccountTransaction, "", errors.New("nil transaction"))
	}
	return e.DecideTransaction(ctx, &TransactionRequest{
		From:     sender,
		To:       tx.To(),
		Value:    tx.Value(),
		GasPrice: tx.GasPrice(),
		Gas:      tx.Gas(),
		Data:     tx.Data(),
	})
}

func describe(kind CheckKind, args interface{}) string {
	switch a := args.(type) {
	case connectionArgs:
		return a.Destination.String()
	case [2]Peer:
		return a[1].String()
	case *TransactionRequest:
		if a == nil {
			return ""
		}
		if a.To == nil {
			return fmt.Sprintf("%v -> create", a.From)
		}
		return fmt.Sprintf("%v -> %v", a.From, *a.To)
	default:
		return fmt.Sprintf("%v(%T)", kind, args)
	}
}
