// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// Observer receives every decision after it is made. Observers are called
// synchronously from the deciding goroutine and must be safe for concurrent use.
type Observer interface {
	Observe(d *Decision)
}

type ObserverFunc func(d *Decision)

func (f ObserverFunc) Observe(d *Decision) { f(d) }

type LogObserver struct {
	logger log.Logger
}

// NewLogObserver logs decisions to logger, or to the root logger if nil.
func NewLogObserver(logger log.Logger) *LogObserver {
	if logger == nil {
		logger = log.Root()
	}
	return &LogObserver{logger: logger.With("module", "permissioning")}
}

func (o *LogObserver) Observe(d *Decision) {
	l := o.logger.With("kind", d.Kind, "subject", d.Subject)
	switch d.Path {
	case PathContractMissing:
		l.Warn("permissioning contract has no code at chain head, allowing", "contract", d.Contract, "head", d.Head)
	case PathEncodingFailed:
		l.Error("could not encode permissioning call, denying", "contract", d.Contract, "err", d.Err)
	case PathMisconfigured, PathPanicked:
		l.Error("permissioning check failed, denying", "path", d.Path, "err", d.Err)
	case PathUnavailable:
		l.Debug("permissioning simulation did not happen, denying", "contract", d.Contract, "head", d.Head, "err", d.Err)
	case PathSimulated:
		switch d.Outcome {
		case Reverted, Invalid:
			l.Trace("permissioning call unsuccessful", "outcome", d.Outcome, "reason", d.Reason)
		}
		if d.Allowed {
			l.Debug("permissioning call allowed", "contract", d.Contract, "head", d.Head, "elapsed", d.Duration)
		} else {
			l.Debug("permissioning call denied", "contract", d.Contract, "head", d.Head, "reason", d.Reason, "elapsed", d.Duration)
		}
	}
}

type kindMetrics struct {
	allow    metrics.Counter
	deny     metrics.Counter
	failOpen metrics.Counter
	errors   metrics.Counter
	duration metrics.Timer
}

// MetricsObserver counts decisions per kind and outcome under permissioning/<kind>/.
// Counters are registered forced, so fail-open decisions are counted even when the
// process runs without --metrics.
type MetricsObserver struct {
	metrics map[CheckKind]*kindMetrics
}

// NewMetricsObserver registers the decision metrics in registry, or in the default
// registry if nil. Observers sharing a registry share counters.
func NewMetricsObserver(registry metrics.Registry) *MetricsObserver {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	o := &MetricsObserver{metrics: make(map[CheckKind]*kindMetrics, len(allCheckKinds))}
	for _, kind := range allCheckKinds {
		prefix := "permissioning/" + kind.String()
		o.metrics[kind] = &kindMetrics{
			allow:    metrics.GetOrRegisterCounterForced(prefix+"/allow", registry),
			deny:     metrics.GetOrRegisterCounterForced(prefix+"/deny", registry),
			failOpen: metrics.GetOrRegisterCounterForced(prefix+"/failopen", registry),
			errors:   metrics.GetOrRegisterCounterForced(prefix+"/error", registry),
			duration: metrics.GetOrRegisterTimer(prefix+"/duration", registry),
		}
	}
	return o
}

func (o *MetricsObserver) Observe(d *Decision) {
	m, ok := o.metrics[d.Kind]
	if !ok {
		return
	}
	if d.Allowed {
		m.allow.Inc(1)
	} else {
		m.deny.Inc(1)
	}
	if d.Path == PathContractMissing {
		m.failOpen.Inc(1)
	}
	if d.Err != nil {
		m.errors.Inc(1)
	}
	if d.Duration > 0 {
		m.duration.Update(d.Duration)
	}
}

var defaultMetricsObserver = NewMetricsObserver(nil)

// DefaultObservers logs to the root logger and updates the default metrics registry.
func DefaultObservers() []Observer {
	return []Observer{NewLogObserver(nil), defaultMetricsObserver}
}
