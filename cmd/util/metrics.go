// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"

	"github.com/offchainlabs/permissioning/cmd/genericconf"
)

// StartMetrics checks metrics and pprof flags and runs the servers that are enabled.
// They are separate so either can be enabled alone, but they can't share an address and port.
func StartMetrics(metricsEnabled bool, pprofEnabled bool, metricsServerConfig *genericconf.MetricsServerConfig, pprofConfig *genericconf.PProf) error {
	mAddr := fmt.Sprintf("%v:%v", metricsServerConfig.Addr, metricsServerConfig.Port)
	pAddr := fmt.Sprintf("%v:%v", pprofConfig.Addr, pprofConfig.Port)
	if metricsEnabled && !metrics.Enabled {
		return errors.New("metrics must be enabled via command line by adding --metrics, json config has no effect")
	}
	if metricsEnabled && pprofEnabled && mAddr == pAddr {
		return fmt.Errorf("metrics and pprof cannot be enabled on the same address:port: %s", mAddr)
	}
	if metricsEnabled {
		go metrics.CollectProcessMetrics(metricsServerConfig.UpdateInterval)
		exp.Setup(mAddr)
	}
	if pprofEnabled {
		genericconf.StartPprof(pAddr)
	}
	return nil
}
