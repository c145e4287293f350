// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package permissioning

import (
	"errors"
	"fmt"
	"math/big"
	"net"

	"github.com/holiman/uint256"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
)

// Peer is the identity of one end of a peer connection as the ingress contract sees it.
type Peer struct {
	ID   [64]byte // uncompressed secp256k1 public key without the 0x04 prefix
	IP   net.IP
	Port uint16
}

// PeerFromNode converts a v4 enode record. The TCP listening port is used, 0 if unset.
func PeerFromNode(n *enode.Node) (Peer, error) {
	if n == nil {
		return Peer{}, errors.New("nil node")
	}
	pub := n.Pubkey()
	if pub == nil {
		return Peer{}, fmt.Errorf("node %v has no secp256k1 public key", n.ID())
	}
	var peer Peer
	copy(peer.ID[:], crypto.FromECDSAPub(pub)[1:])
	peer.IP = n.IP()
	tcp := n.TCP()
	if tcp < 0 || tcp > 0xffff {
		return Peer{}, fmt.Errorf("node %v has out of range port %d", n.ID(), tcp)
	}
	peer.Port = uint16(tcp)
	return peer, nil
}

// ParsePeer parses an enode:// URL.
func ParsePeer(url string) (Peer, error) {
	n, err := enode.ParseV4(url)
	if err != nil {
		return Peer{}, err
	}
	return PeerFromNode(n)
}

func (p Peer) String() string {
	return fmt.Sprintf("enode://%x@%v:%d", p.ID[:], p.IP, p.Port)
}

// TransactionRequest carries the attributes of a transaction checked for admission.
// A nil To is a contract creation and is encoded as the zero address.
type TransactionRequest struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	GasPrice *big.Int
	Gas      uint64
	Data     []byte
}

// NewTransactionRequest recovers the sender of tx with signer. For dynamic fee
// transactions the fee cap is used as the gas price.
func NewTransactionRequest(tx *types.Transaction, signer types.Signer) (*TransactionRequest, error) {
	from, err := types.Sender(signer, tx)
	if err != nil {
		return nil, &EncodingError{Kind: AccountTransaction, Field: "sender", Err: err}
	}
	return &TransactionRequest{
		From:     from,
		To:       tx.To(),
		Value:    tx.Value(),
		GasPrice: tx.GasPrice(),
		Gas:      tx.Gas(),
		Data:     tx.Data(),
	}, nil
}

type connectionArgs struct {
	Source      Peer
	Destination Peer
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var (
	bytes32Type = mustNewType("bytes32")
	bytes16Type = mustNewType("bytes16")
	uint16Type  = mustNewType("uint16")
	addressType = mustNewType("address")
	uint256Type = mustNewType("uint256")
	bytesType   = mustNewType("bytes")

	connectionArguments = abi.Arguments{
		{Name: "sourceEnodeHigh", Type: bytes32Type},
		{Name: "sourceEnodeLow", Type: bytes32Type},
		{Name: "sourceIp", Type: bytes16Type},
		{Name: "sourcePort", Type: uint16Type},
		{Name: "destinationEnodeHigh", Type: bytes32Type},
		{Name: "destinationEnodeLow", Type: bytes32Type},
		{Name: "destinationIp", Type: bytes16Type},
		{Name: "destinationPort", Type: uint16Type},
	}
	transactionArguments = abi.Arguments{
		{Name: "sender", Type: addressType},
		{Name: "target", Type: addressType},
		{Name: "value", Type: uint256Type},
		{Name: "gasPrice", Type: uint256Type},
		{Name: "gasLimit", Type: uint256Type},
		{Name: "payload", Type: bytesType},
	}
)

// EncodePayload dispatches to the encoder of kind. args must be a [2]Peer for
// NodeConnection and a *TransactionRequest for AccountTransaction.
func EncodePayload(kind CheckKind, args interface{}) ([]byte, error) {
	switch kind {
	case NodeConnection:
		switch a := args.(type) {
		case connectionArgs:
			return EncodeConnectionPayload(a.Source, a.Destination)
		case [2]Peer:
			return EncodeConnectionPayload(a[0], a[1])
		}
	case AccountTransaction:
		if tx, ok := args.(*TransactionRequest); ok {
			return EncodeTransactionPayload(tx)
		}
	default:
		return nil, &EncodingError{Kind: kind, Err: errors.New("unknown check kind")}
	}
	return nil, &EncodingError{Kind: kind, Err: fmt.Errorf("unexpected argument type %T", args)}
}

// EncodeConnectionPayload packs connectionAllowed(src, dst).
func EncodeConnectionPayload(src, dst Peer) ([]byte, error) {
	var values []interface{}
	for _, peer := range []struct {
		name string
		Peer
	}{{"source", src}, {"destination", dst}} {
		if peer.ID == ([64]byte{}) {
			return nil, &EncodingError{Kind: NodeConnection, Field: peer.name + ".id", Err: errors.New("missing node id")}
		}
		ip, err := packIP(peer.IP)
		if err != nil {
			return nil, &EncodingError{Kind: NodeConnection, Field: peer.name + ".ip", Err: err}
		}
		var high, low [32]byte
		copy(high[:], peer.ID[:32])
		copy(low[:], peer.ID[32:])
		values = append(values, high, low, ip, peer.Port)
	}
	packed, err := connectionArguments.Pack(values...)
	if err != nil {
		return nil, &EncodingError{Kind: NodeConnection, Err: err}
	}
	return withSelector(nodeConnectionSelector, packed), nil
}

// packIP returns the 16 byte form of ip, IPv4 mapped as ::ffff:a.b.c.d.
// A missing address packs as zeroes.
func packIP(ip net.IP) ([16]byte, error) {
	var res [16]byte
	if len(ip) == 0 {
		return res, nil
	}
	ip16 := ip.To16()
	if ip16 == nil {
		return res, fmt.Errorf("invalid ip address of length %d", len(ip))
	}
	copy(res[:], ip16)
	return res, nil
}

// EncodeTransactionPayload packs transactionAllowed(sender, target, value, gasPrice, gasLimit, payload).
func EncodeTransactionPayload(tx *TransactionRequest) ([]byte, error) {
	if tx == nil {
		return nil, &EncodingError{Kind: AccountTransaction, Err: errors.New("nil transaction")}
	}
	if tx.From == (common.Address{}) {
		return nil, &EncodingError{Kind: AccountTransaction, Field: "sender", Err: errors.New("missing sender")}
	}
	var target common.Address
	if tx.To != nil {
		target = *tx.To
	}
	value, err := checkUint256(tx.Value)
	if err != nil {
		return nil, &EncodingError{Kind: AccountTransaction, Field: "value", Err: err}
	}
	gasPrice, err := checkUint256(tx.GasPrice)
	if err != nil {
		return nil, &EncodingError{Kind: AccountTransaction, Field: "gasPrice", Err: err}
	}
	data := tx.Data
	if data == nil {
		data = []byte{}
	}
	packed, err := transactionArguments.Pack(tx.From, target, value, gasPrice, new(big.Int).SetUint64(tx.Gas), data)
	if err != nil {
		return nil, &EncodingError{Kind: AccountTransaction, Err: err}
	}
	return withSelector(accountTransactionSelector, packed), nil
}

func checkUint256(v *big.Int) (*big.Int, error) {
	if v == nil {
		return new(big.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %v", v)
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, fmt.Errorf("value %v overflows uint256", v)
	}
	return v, nil
}

func withSelector(sel FunctionSelector, packed []byte) []byte {
	payload := make([]byte, 0, len(sel)+len(packed))
	payload = append(payload, sel[:]...)
	return append(payload, packed...)
}
