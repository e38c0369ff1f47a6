// Package p2p implements the node's TCP gossip protocol: handshake,
// block/transaction inventory exchange, and block/transaction relay.
package p2p

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

const (
	protocol      = "tcp"
	version       = 1
	commandLength = 12
	// recvLimit bounds a single message read off the wire.
	recvLimit = 8 * 1024
)

// Kind distinguishes the two things Inv/GetData messages can carry. It
// replaces the teacher's bare "block"/"tx" strings with a closed type. Any
// uint8 still decodes; an unrecognized value reaches the handlers' default
// case and is rejected with an error instead of silently falling through
// every type switch unmatched.
type Kind uint8

const (
	KindBlock Kind = iota
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindTransaction:
		return "tx"
	default:
		return "unknown"
	}
}

// command names the fixed 12-byte prefix every message opens with.
type command string

const (
	cmdVersion   command = "version"
	cmdGetBlocks command = "getblocks"
	cmdInv       command = "inv"
	cmdGetData   command = "getdata"
	cmdBlock     command = "block"
	cmdTx        command = "tx"
)

// versionMsg is exchanged on first contact so each side can decide who is
// behind and needs to sync.
type versionMsg struct {
	Version    int
	BestHeight uint64
	AddrFrom   string
}

// getBlocksMsg asks a peer for its full list of block hashes.
type getBlocksMsg struct {
	AddrFrom string
}

// invMsg advertises hashes of blocks or transactions the sender has
// available.
type invMsg struct {
	AddrFrom string
	Kind     Kind
	Items    [][]byte
}

// getDataMsg requests one specific block or transaction by hash.
type getDataMsg struct {
	AddrFrom string
	Kind     Kind
	ID       []byte
}

// blockMsg carries one serialized block.
type blockMsg struct {
	AddrFrom string
	Block    []byte
}

// txMsg carries one serialized transaction.
type txMsg struct {
	AddrFrom    string
	Transaction []byte
}

func cmdToBytes(cmd command) []byte {
	var b [commandLength]byte
	copy(b[:], cmd)
	return b[:]
}

func cmdFromBytes(b []byte) command {
	var trimmed []byte
	for _, c := range b {
		if c != 0x0 {
			trimmed = append(trimmed, c)
		}
	}
	return command(trimmed)
}

func gobEncode(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("p2p: encode message: %w", err)
	}
	return buf.Bytes(), nil
}

func gobDecode(payload []byte, out interface{}) error {
	buf := bytes.NewBuffer(payload)
	if err := gob.NewDecoder(buf).Decode(out); err != nil {
		return fmt.Errorf("p2p: decode message: %w", err)
	}
	return nil
}

func frame(cmd command, body interface{}) ([]byte, error) {
	payload, err := gobEncode(body)
	if err != nil {
		return nil, err
	}
	return append(cmdToBytes(cmd), payload...), nil
}
