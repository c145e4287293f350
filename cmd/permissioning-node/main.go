// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/offchainlabs/permissioning/cmd/genericconf"
	"github.com/offchainlabs/permissioning/cmd/permissioning-node/api"
	"github.com/offchainlabs/permissioning/cmd/util"
	"github.com/offchainlabs/permissioning/cmd/util/confighelpers"
	"github.com/offchainlabs/permissioning/permissioning"
	"github.com/offchainlabs/permissioning/simulator/evmsim"
	"github.com/offchainlabs/permissioning/simulator/rpcsim"
	"github.com/offchainlabs/permissioning/util/rpcclient"
)

func printSampleUsage(progname string) {
	fmt.Printf("\n")
	fmt.Printf("Sample usage:                  %s --help \n", progname)
	fmt.Printf("                               %s --permissioning.node-ingress-address 0x... --permissioning.account-ingress-address 0x... --node.url http://127.0.0.1:8545\n", progname)
}

// readGenesisAlloc accepts either a full genesis file or a bare alloc map.
func readGenesisAlloc(path string) (core.GenesisAlloc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var genesis struct {
		Alloc core.GenesisAlloc `json:"alloc"`
	}
	if err := json.Unmarshal(data, &genesis); err == nil && genesis.Alloc != nil {
		return genesis.Alloc, nil
	}
	var alloc core.GenesisAlloc
	if err := json.Unmarshal(data, &alloc); err != nil {
		return nil, fmt.Errorf("error decoding genesis %s: %w", path, err)
	}
	return alloc, nil
}

type backend struct {
	chain     permissioning.ChainState
	simulator permissioning.Simulator
	close     func()
}

func newMemoryBackend(config *NodeConfig) (*backend, error) {
	chainConfig := *params.AllEthashProtocolChanges
	chainConfig.ChainID = new(big.Int).SetUint64(config.ChainId)
	chain, err := evmsim.NewChain(&chainConfig, config.Simulator.GasCap)
	if err != nil {
		return nil, err
	}
	if config.GenesisFile != "" {
		alloc, err := readGenesisAlloc(config.GenesisFile)
		if err != nil {
			return nil, err
		}
		chain.ApplyAlloc(alloc)
		head := chain.Seal()
		log.Info("loaded genesis into memory backend", "accounts", len(alloc), "head", head)
	}
	return &backend{chain: chain, simulator: chain, close: func() {}}, nil
}

func newRPCBackend(ctx context.Context, live *LiveConfig) (*backend, error) {
	client := rpcclient.NewRpcClient(live.NodeClientConfig)
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to node: %w", err)
	}
	rpcBackend := rpcsim.NewBackend(client, live.SimulatorConfig)
	return &backend{chain: rpcBackend, simulator: rpcBackend, close: client.Close}, nil
}

func logPermissioningReload(old *NodeConfig, new *NodeConfig) error {
	if old.Permissioning != new.Permissioning {
		log.Info("permissioning contracts reloaded",
			"node-ingress", new.Permissioning.NodeIngressAddress,
			"account-ingress", new.Permissioning.AccountIngressAddress,
		)
	}
	return nil
}

func mainImpl() int {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	args := os.Args[1:]
	config, err := parseConfig(args)
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}

	pathResolver := genericconf.DefaultPathResolver(config.LogDir)
	err = genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, pathResolver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing log: %v\n", err)
		return 1
	}
	vcsRevision, strippedRevision, vcsTime := confighelpers.GetVersion()
	log.Info("running permissioning node", "revision", vcsRevision, "vcs.time", vcsTime, "backend", config.Backend)

	if err := util.StartMetrics(config.Metrics, config.PProf, &config.MetricsServer, &config.PprofCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error starting metrics server: %v\n", err)
		return 1
	}

	liveConfig := NewLiveConfig(args, config, pathResolver)
	liveConfig.setOnReloadHook(logPermissioningReload)
	liveConfig.Start(ctx)
	defer liveConfig.StopAndWait()

	var chainBackend *backend
	switch config.Backend {
	case BackendMemory:
		chainBackend, err = newMemoryBackend(config)
	default:
		chainBackend, err = newRPCBackend(ctx, liveConfig)
	}
	if err != nil {
		log.Error("error creating simulation backend", "err", err)
		return 1
	}
	defer chainBackend.close()

	plugin, err := permissioning.NewPlugin(liveConfig.PermissioningConfig, chainBackend.chain, chainBackend.simulator)
	if err != nil {
		log.Error("permissioning plugin not activated", "err", err)
		return 1
	}
	host := api.NewPermissioningAPI(new(big.Int).SetUint64(config.ChainId))
	plugin.Register(host)
	plugin.Start()
	defer plugin.Stop()

	watcher := NewContractWatcher(chainBackend.chain, liveConfig.Get)
	watcher.Start(ctx)
	defer watcher.StopAndWait()

	stackConf := api.DefaultStackConfig
	config.HTTP.Apply(&stackConf)
	stackConf.Version = strippedRevision
	stack, err := api.NewStack(&stackConf, host)
	if err != nil {
		log.Error("error creating stack", "err", err)
		return 1
	}
	if err := stack.Start(); err != nil {
		log.Error("error starting stack", "err", err)
		return 1
	}
	defer stack.Close()
	log.Info("serving permissioning API", "endpoint", stack.HTTPEndpoint())

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint
	log.Info("shutting down")

	return 0
}

func main() {
	os.Exit(mainImpl())
}
