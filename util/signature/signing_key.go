// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package signature loads the shared secrets used to authenticate RPC connections.
package signature

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var keyIsHexRegex = regexp.MustCompile("^(0x)?[a-fA-F0-9]{64}$")

var ErrMalformedKeyFile = errors.New("signing key file contents are not 32 bytes of hex")

// LoadSigningKey parses keyConfig as a 32 byte hex key, or reads the key from the file
// it names. An empty keyConfig returns a nil key.
func LoadSigningKey(keyConfig string) (*common.Hash, error) {
	if keyConfig == "" {
		return nil, nil
	}
	keyString := keyConfig
	if !keyIsHexRegex.MatchString(keyConfig) {
		contents, err := os.ReadFile(keyConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key file: %w", err)
		}
		keyString = strings.TrimSpace(string(contents))
		if !keyIsHexRegex.MatchString(keyString) {
			return nil, fmt.Errorf("%w: %s", ErrMalformedKeyFile, keyConfig)
		}
	}
	hash := common.HexToHash(keyString)
	return &hash, nil
}
