// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package signature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/permissioning/util/testhelpers"
)

const testKey = "b561f5d5d98debc783aa8a1472d67ec3bcd532a1c8d95e5cb23caa70c649f7c9"

func TestLoadSigningKey(t *testing.T) {
	key, err := LoadSigningKey("")
	Require(t, err)
	if key != nil {
		Fail(t, "empty config produced a key", key)
	}

	key, err = LoadSigningKey(testKey)
	Require(t, err)
	if *key != common.HexToHash(testKey) {
		Fail(t, "unexpected key", key)
	}

	key, err = LoadSigningKey("0x" + testKey)
	Require(t, err)
	if *key != common.HexToHash(testKey) {
		Fail(t, "unexpected prefixed key", key)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "jwt.hex")
	Require(t, os.WriteFile(path, []byte("0x"+testKey+"\n"), 0600))
	key, err = LoadSigningKey(path)
	Require(t, err)
	if *key != common.HexToHash(testKey) {
		Fail(t, "unexpected key from file", key)
	}

	bad := filepath.Join(dir, "bad.hex")
	Require(t, os.WriteFile(bad, []byte("not a key"), 0600))
	_, err = LoadSigningKey(bad)
	if !errors.Is(err, ErrMalformedKeyFile) {
		Fail(t, "expected malformed key error, got", err)
	}

	_, err = LoadSigningKey(filepath.Join(dir, "missing"))
	if err == nil {
		Fail(t, "missing file did not error")
	}
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
