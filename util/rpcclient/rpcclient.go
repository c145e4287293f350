// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/offchainlabs/permissioning/util/signature"
)

var ErrNotConnected = errors.New("not connected")

type ClientConfig struct {
	URL            string        `koanf:"url"`
	JWTSecret      string        `koanf:"jwtsecret"`
	Timeout        time.Duration `koanf:"timeout" reload:"hot"`
	Retries        uint          `koanf:"retries" reload:"hot"`
	ConnectionWait time.Duration `koanf:"connection-wait"`
	ArgLogLimit    uint          `koanf:"arg-log-limit" reload:"hot"`
	RetryErrors    string        `koanf:"retry-errors" reload:"hot"`
}

type ClientConfigFetcher func() *ClientConfig

var DefaultClientConfig = ClientConfig{
	URL:            "http://127.0.0.1:8545",
	JWTSecret:      "",
	Timeout:        5 * time.Second,
	Retries:        2,
	ConnectionWait: time.Minute,
	ArgLogLimit:    2048,
	RetryErrors:    "",
}

func RPCClientAddOptions(prefix string, f *flag.FlagSet, defaultConfig *ClientConfig) {
	f.String(prefix+".url", defaultConfig.URL, "url of the execution node whose state permissioning contracts are read from")
	f.String(prefix+".jwtsecret", defaultConfig.JWTSecret, "path to file with jwtsecret for authenticating to the execution node (empty for none)")
	f.Duration(prefix+".connection-wait", defaultConfig.ConnectionWait, "how long to wait for initial connection")
	f.Duration(prefix+".timeout", defaultConfig.Timeout, "per-response timeout (0-disabled)")
	f.Uint(prefix+".arg-log-limit", defaultConfig.ArgLogLimit, "limit size of arguments in log entries")
	f.Uint(prefix+".retries", defaultConfig.Retries, "number of retries in case of failure(0 mean one attempt)")
	f.String(prefix+".retry-errors", defaultConfig.RetryErrors, "Errors matching this regular expression are automatically retried")
}

func (c *ClientConfig) Validate() error {
	if c.URL == "" {
		return errors.New("no url provided for this connection")
	}
	if c.RetryErrors != "" {
		if _, err := regexp.Compile(c.RetryErrors); err != nil {
			return fmt.Errorf("invalid retry-errors regexp %q: %w", c.RetryErrors, err)
		}
	}
	return nil
}

// RpcClient is a JSON-RPC client with per-call timeouts, retries and bounded argument logging.
type RpcClient struct {
	config ClientConfigFetcher
	client atomic.Pointer[rpc.Client]
	logId  atomic.Uint64
}

func NewRpcClient(config ClientConfigFetcher) *RpcClient {
	return &RpcClient{config: config}
}

func (c *RpcClient) Close() {
	if client := c.client.Swap(nil); client != nil {
		client.Close()
	}
}

func (c *RpcClient) Connected() bool {
	return c.client.Load() != nil
}

func limitString(limit int, str string) string {
	if limit == 0 || len(str) <= limit {
		return str
	}
	prefix := str[:limit/2-1]
	postfix := str[len(str)-limit/2+1:]
	return fmt.Sprintf("%v..%v", prefix, postfix)
}

func logArgs(limit int, args ...interface{}) string {
	res := "["
	for i, arg := range args {
		marshalled, err := json.Marshal(arg)
		if err != nil {
			res += "\"CANNOT MARSHALL:" + limitString(limit, err.Error()) + "\""
		} else {
			res += limitString(limit, string(marshalled))
		}
		if i < len(args)-1 {
			res += ", "
		}
	}
	res += "]"
	return res
}

// isServerAnswer reports errors the server returned as a JSON-RPC error object.
func isServerAnswer(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

func (c *RpcClient) CallContext(ctx_in context.Context, result interface{}, method string, args ...interface{}) error {
	client := c.client.Load()
	if client == nil {
		return ErrNotConnected
	}
	config := c.config()
	logId := c.logId.Add(1)
	log.Trace("sending RPC request", "method", method, "logId", logId, "args", logArgs(int(config.ArgLogLimit), args...))
	var err error
	for i := 0; i < int(config.Retries)+1; i++ {
		if ctx_in.Err() != nil {
			return ctx_in.Err()
		}
		var ctx context.Context
		var cancelCtx context.CancelFunc
		if config.Timeout > 0 {
			ctx, cancelCtx = context.WithTimeout(ctx_in, config.Timeout)
		} else {
			ctx, cancelCtx = context.WithCancel(ctx_in)
		}
		err = client.CallContext(ctx, result, method, args...)
		cancelCtx()
		logger := log.Trace
		limit := int(config.ArgLogLimit)
		if err != nil && !isServerAnswer(err) {
			logger = log.Info
			limit = 0
		}
		logger("rpc response", "method", method, "logId", logId, "err", err, "result", limitString(limit, fmt.Sprintf("%+v", result)), "attempt", i, "args", logArgs(limit, args...))
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		if config.RetryErrors != "" {
			match, regexErr := regexp.MatchString(config.RetryErrors, err.Error())
			if regexErr != nil {
				log.Warn("rpcclient: bad value for retry-error. Not retrying.", "err", err, "value", config.RetryErrors)
			}
			if match {
				continue
			}
		}
		return err
	}
	return err
}

func (c *RpcClient) BatchCallContext(ctx context.Context, b []rpc.BatchElem) error {
	client := c.client.Load()
	if client == nil {
		return ErrNotConnected
	}
	return client.BatchCallContext(ctx, b)
}

// Start dials the configured url, retrying until connection-wait elapses.
func (c *RpcClient) Start(ctx_in context.Context) error {
	config := c.config()
	if err := config.Validate(); err != nil {
		return err
	}
	var jwt *common.Hash
	if config.JWTSecret != "" {
		var err error
		jwt, err = signature.LoadSigningKey(config.JWTSecret)
		if err != nil {
			return err
		}
	}
	connTimeout := time.After(config.ConnectionWait)
	for {
		var ctx context.Context
		var cancelCtx context.CancelFunc
		if config.Timeout > 0 {
			ctx, cancelCtx = context.WithTimeout(ctx_in, config.Timeout)
		} else {
			ctx, cancelCtx = context.WithCancel(ctx_in)
		}
		var err error
		var client *rpc.Client
		if jwt == nil {
			client, err = rpc.DialContext(ctx, config.URL)
		} else {
			client, err = rpc.DialOptions(ctx, config.URL, rpc.WithHTTPAuth(node.NewJWTAuth([32]byte(*jwt))))
		}
		cancelCtx()
		if err == nil {
			if old := c.client.Swap(client); old != nil {
				old.Close()
			}
			log.Info("connected to execution node", "url", config.URL, "authenticated", jwt != nil)
			return nil
		}
		if strings.Contains(err.Error(), "parse") ||
			strings.Contains(err.Error(), "malformed") ||
			strings.Contains(err.Error(), "no known transport") {
			return fmt.Errorf("%w: url %s", err, config.URL)
		}
		log.Warn("failed connecting to execution node, retrying", "url", config.URL, "err", err)
		select {
		case <-ctx_in.Done():
			return ctx_in.Err()
		case <-connTimeout:
			return fmt.Errorf("timeout trying to connect lastError: %w", err)
		case <-time.After(time.Second):
		}
	}
}
