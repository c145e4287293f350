// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package genericconf

import (
	"net/http"
	// Register the pprof handlers on the default mux.
	_ "net/http/pprof" // #nosec G108
	"time"

	"github.com/ethereum/go-ethereum/log"
)

func StartPprof(address string) {
	log.Info("Starting pprof server", "address", address)
	server := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failure in running pprof server", "err", err)
		}
	}()
}
