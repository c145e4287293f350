// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/rand"
	"net"
	"os"
	"regexp"
	"sync"
	"testing"

	slog "golang.org/x/exp/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"

	"github.com/offchainlabs/permissioning/util/colors"
)

// Fail a test should an error occur
func RequireImpl(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(colors.Red, printables, err, colors.Clear)
	}
}

func FailImpl(t *testing.T, printables ...interface{}) {
	t.Helper()
	t.Fatal(colors.Red, printables, colors.Clear)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomHash() common.Hash {
	var hash common.Hash
	RandomizeSlice(hash[:])
	return hash
}

func RandomAddress() common.Address {
	var address common.Address
	RandomizeSlice(address[:])
	return address
}

// RandomNode returns a v4 enode record with a fresh key listening on ip:port.
func RandomNode(t *testing.T, ip net.IP, port int) (*enode.Node, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	RequireImpl(t, err)
	return enode.NewV4(&key.PublicKey, ip, port, port), key
}

type LogRecord struct {
	Level slog.Level
	Msg   string
	Attrs map[string]string
}

type logRecorder struct {
	mutex   sync.Mutex
	records []LogRecord
}

// LogHandler is a slog handler that keeps every record it sees and forwards it to stderr.
type LogHandler struct {
	t        *testing.T
	level    slog.Level
	recorder *logRecorder
	inner    slog.Handler
	attrs    []slog.Attr
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	entry := LogRecord{Level: record.Level, Msg: record.Message, Attrs: map[string]string{}}
	for _, attr := range h.attrs {
		entry.Attrs[attr.Key] = fmt.Sprint(attr.Value.Any())
	}
	record.Attrs(func(attr slog.Attr) bool {
		entry.Attrs[attr.Key] = fmt.Sprint(attr.Value.Any())
		return true
	})
	h.recorder.mutex.Lock()
	h.recorder.records = append(h.recorder.records, entry)
	h.recorder.mutex.Unlock()
	return h.inner.Handle(ctx, record)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &LogHandler{t: h.t, level: h.level, recorder: h.recorder, inner: h.inner.WithAttrs(attrs), attrs: combined}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{t: h.t, level: h.level, recorder: h.recorder, inner: h.inner.WithGroup(name), attrs: h.attrs}
}

func (h *LogHandler) Records() []LogRecord {
	h.recorder.mutex.Lock()
	defer h.recorder.mutex.Unlock()
	return append([]LogRecord(nil), h.recorder.records...)
}

func (h *LogHandler) WasLogged(pattern string) bool {
	return h.FindRecord(pattern) != nil
}

// FindRecord returns the first record whose message matches pattern.
func (h *LogHandler) FindRecord(pattern string) *LogRecord {
	re, err := regexp.Compile(pattern)
	RequireImpl(h.t, err)
	for _, record := range h.Records() {
		if re.MatchString(record.Msg) {
			record := record
			return &record
		}
	}
	return nil
}

func newLogHandler(t *testing.T, level slog.Level) *LogHandler {
	return &LogHandler{
		t:        t,
		level:    level,
		recorder: &logRecorder{},
		inner:    log.NewTerminalHandler(os.Stderr, false),
	}
}

// NewTestLogger returns a logger recording into the returned handler without
// touching the root logger, so parallel tests do not see each other's records.
func NewTestLogger(t *testing.T, level slog.Level) (log.Logger, *LogHandler) {
	handler := newLogHandler(t, level)
	return log.NewLogger(handler), handler
}

func InitTestLog(t *testing.T, level slog.Level) *LogHandler {
	handler := newLogHandler(t, level)
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(level)
	log.SetDefault(log.NewLogger(glogger))
	return handler
}
