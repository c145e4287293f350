// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/knadh/koanf/parsers/json"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/permissioning/cmd/genericconf"
	"github.com/offchainlabs/permissioning/cmd/util/confighelpers"
	"github.com/offchainlabs/permissioning/permissioning"
	"github.com/offchainlabs/permissioning/simulator/rpcsim"
	"github.com/offchainlabs/permissioning/util/colors"
	"github.com/offchainlabs/permissioning/util/rpcclient"
	"github.com/offchainlabs/permissioning/util/stopwaiter"
)

const (
	BackendRPC    = "rpc"
	BackendMemory = "memory"
)

type NodeConfig struct {
	Conf genericconf.ConfConfig `koanf:"conf" reload:"hot"`

	FileLogging genericconf.FileLoggingConfig `koanf:"file-logging" reload:"hot"`
	LogLevel    string                        `koanf:"log-level" reload:"hot"`
	LogType     string                        `koanf:"log-type"`
	LogDir      string                        `koanf:"log-dir"`

	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`

	PProf    bool              `koanf:"pprof"`
	PprofCfg genericconf.PProf `koanf:"pprof-cfg"`

	HTTP genericconf.HTTPConfig `koanf:"http"`

	ChainId       uint64                 `koanf:"chain-id"`
	Backend       string                 `koanf:"backend"`
	GenesisFile   string                 `koanf:"genesis-file"`
	Node          rpcclient.ClientConfig `koanf:"node" reload:"hot"`
	Simulator     rpcsim.Config          `koanf:"simulator" reload:"hot"`
	WatchInterval time.Duration          `koanf:"watch-interval" reload:"hot"`

	Permissioning permissioning.Config `koanf:"permissioning" reload:"hot"`
}

var DefaultNodeConfig = NodeConfig{
	Conf:          genericconf.ConfConfigDefault,
	FileLogging:   genericconf.DefaultFileLoggingConfig,
	LogLevel:      "INFO",
	LogType:       "plaintext",
	LogDir:        "",
	Metrics:       false,
	MetricsServer: genericconf.MetricsServerConfigDefault,
	PProf:         false,
	PprofCfg:      genericconf.PProfDefault,
	HTTP:          genericconf.HTTPConfigDefault,
	ChainId:       1337,
	Backend:       BackendRPC,
	GenesisFile:   "",
	Node:          rpcclient.DefaultClientConfig,
	Simulator:     rpcsim.DefaultConfig,
	WatchInterval: time.Minute,
	Permissioning: permissioning.DefaultConfig,
}

func addFlags(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)

	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	f.String("log-level", DefaultNodeConfig.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", DefaultNodeConfig.LogType, "log type (plaintext or json)")
	f.String("log-dir", DefaultNodeConfig.LogDir, "directory relative file-logging.file paths are resolved against")

	f.Bool("metrics", DefaultNodeConfig.Metrics, "enable metrics")
	genericconf.MetricsServerAddOptions("metrics-server", f)

	f.Bool("pprof", DefaultNodeConfig.PProf, "enable pprof")
	genericconf.PProfAddOptions("pprof-cfg", f)

	genericconf.HTTPConfigAddOptions("http", f)

	f.Uint64("chain-id", DefaultNodeConfig.ChainId, "chain ID used to recover the sender of raw transactions")
	f.String("backend", DefaultNodeConfig.Backend, "simulation backend, valid values are rpc (the permissioned node over JSON-RPC) and memory (an in-process EVM seeded from genesis-file)")
	f.String("genesis-file", DefaultNodeConfig.GenesisFile, "JSON genesis alloc loaded into the memory backend")
	rpcclient.RPCClientAddOptions("node", f, &DefaultNodeConfig.Node)
	rpcsim.ConfigAddOptions("simulator", f)
	f.Duration("watch-interval", DefaultNodeConfig.WatchInterval, "how often to check that the permissioning contracts are deployed (0 to disable)")

	permissioning.ConfigAddOptions("permissioning", f)
}

func (c *NodeConfig) Validate() error {
	switch c.Backend {
	case BackendRPC:
		if err := c.Node.Validate(); err != nil {
			return fmt.Errorf("invalid node config: %w", err)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid backend %q, valid values are %s and %s", c.Backend, BackendRPC, BackendMemory)
	}
	if c.ChainId == 0 {
		return errors.New("chain-id must be set")
	}
	if c.WatchInterval < 0 {
		return errors.New("watch-interval must not be negative")
	}
	return c.Permissioning.Validate()
}

// CanReload returns an error naming the first changed field that is not marked reload:"hot".
func (c *NodeConfig) CanReload(new *NodeConfig) error {
	var check func(node, other reflect.Value, path string)
	var err error

	check = func(node, value reflect.Value, path string) {
		if node.Kind() != reflect.Struct {
			return
		}

		for i := 0; i < node.NumField(); i++ {
			fieldTy := node.Type().Field(i)
			if !fieldTy.IsExported() {
				continue
			}
			hot := fieldTy.Tag.Get("reload") == "hot"
			dot := path + "." + fieldTy.Name

			first := node.Field(i).Interface()
			other := value.Field(i).Interface()

			if !hot && !reflect.DeepEqual(first, other) {
				err = fmt.Errorf("illegal change to %v%v%v", colors.Red, dot, colors.Clear)
			} else {
				check(node.Field(i), value.Field(i), dot)
			}
		}
	}

	check(reflect.ValueOf(c).Elem(), reflect.ValueOf(new).Elem(), "config")
	return err
}

// legacyEnvAliases keeps environment files written for the Besu plugin working. The
// prefixed names, such as PLUGIN_PERMISSIONING_NODE__INGRESS__ADDRESS, take precedence.
var legacyEnvAliases = map[string]string{
	"BESU_PLUGIN_PERMISSIONING_NODE_INGRESS_ADDRESS":    "permissioning.node-ingress-address",
	"BESU_PLUGIN_PERMISSIONING_ACCOUNT_INGRESS_ADDRESS": "permissioning.account-ingress-address",
}

func parseConfig(args []string) (*NodeConfig, error) {
	f := flag.NewFlagSet("", flag.ContinueOnError)

	addFlags(f)

	k, err := confighelpers.BeginCommonParseWithEnvAliases(f, args, legacyEnvAliases)
	if err != nil {
		return nil, err
	}

	var config NodeConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	if config.Conf.Dump {
		err = confighelpers.DumpConfig(k, map[string]interface{}{
			"node.jwtsecret": "",
		})
		if err != nil {
			return nil, fmt.Errorf("error removing extra parameters before dump: %w", err)
		}

		c, err := k.Marshal(json.Parser())
		if err != nil {
			return nil, fmt.Errorf("unable to marshal config file to JSON: %w", err)
		}

		fmt.Println(string(c))
		os.Exit(0)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

type OnReloadHook func(old *NodeConfig, new *NodeConfig) error

func noopOnReloadHook(_ *NodeConfig, _ *NodeConfig) error {
	return nil
}

// LiveConfig holds the current configuration and replaces it when the sources are
// re-read, either on SIGUSR1 or every conf.reload-interval.
type LiveConfig struct {
	stopwaiter.StopWaiter

	mutex        sync.RWMutex
	args         []string
	config       *NodeConfig
	parse        func([]string) (*NodeConfig, error)
	pathResolver func(string) string
	onReloadHook OnReloadHook
	signals      chan os.Signal
}

func NewLiveConfig(args []string, config *NodeConfig, pathResolver func(string) string) *LiveConfig {
	return &LiveConfig{
		args:         args,
		config:       config,
		parse:        parseConfig,
		pathResolver: pathResolver,
		onReloadHook: noopOnReloadHook,
		signals:      make(chan os.Signal, 1),
	}
}

func (c *LiveConfig) Get() *NodeConfig {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.config
}

func (c *LiveConfig) set(config *NodeConfig) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.config.CanReload(config); err != nil {
		return err
	}
	if err := genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, c.pathResolver); err != nil {
		return err
	}
	if err := c.onReloadHook(c.config, config); err != nil {
		log.Error("Failed to execute onReloadHook", "err", err)
	}
	c.config = config
	return nil
}

// Reload re-reads every configuration source and applies the result.
func (c *LiveConfig) Reload() error {
	config, err := c.parse(c.args)
	if err != nil {
		return fmt.Errorf("error parsing live config: %w", err)
	}
	if err := c.set(config); err != nil {
		return fmt.Errorf("error updating live config: %w", err)
	}
	return nil
}

func (c *LiveConfig) Start(ctxIn context.Context) {
	c.StopWaiter.Start(ctxIn, c)

	signal.Notify(c.signals, syscall.SIGUSR1)

	c.LaunchThread(func(ctx context.Context) {
		defer signal.Stop(c.signals)
		for {
			reloadInterval := c.Get().Conf.ReloadInterval
			var timer *time.Timer
			var tick <-chan time.Time
			if reloadInterval > 0 {
				timer = time.NewTimer(reloadInterval)
				tick = timer.C
			}
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-c.signals:
				log.Info("Configuration reload triggered by SIGUSR1.")
			case <-tick:
			}
			if timer != nil {
				timer.Stop()
			}
			if err := c.Reload(); err != nil {
				log.Error("config reload failed", "err", err)
			}
		}
	})
}

// setOnReloadHook is NOT thread-safe and supports setting only one hook
func (c *LiveConfig) setOnReloadHook(hook OnReloadHook) {
	c.onReloadHook = hook
}

func (c *LiveConfig) PermissioningConfig() *permissioning.Config {
	return &c.Get().Permissioning
}

func (c *LiveConfig) SimulatorConfig() *rpcsim.Config {
	return &c.Get().Simulator
}

func (c *LiveConfig) NodeClientConfig() *rpcclient.ClientConfig {
	return &c.Get().Node
}
