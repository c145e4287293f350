// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/permissioning/cmd/genericconf"
)

func TestStartMetricsRejectsSharedAddress(t *testing.T) {
	if !metrics.Enabled {
		err := StartMetrics(true, false, &genericconf.MetricsServerConfigDefault, &genericconf.PProfDefault)
		require.ErrorContains(t, err, "--metrics")
		return
	}
	pprof := genericconf.PProf{Addr: genericconf.MetricsServerConfigDefault.Addr, Port: genericconf.MetricsServerConfigDefault.Port}
	err := StartMetrics(true, true, &genericconf.MetricsServerConfigDefault, &pprof)
	require.ErrorContains(t, err, "same address")
}

func TestStartMetricsDisabled(t *testing.T) {
	require.NoError(t, StartMetrics(false, false, &genericconf.MetricsServerConfigDefault, &genericconf.PProfDefault))
}
