package p2p

import (
	"fmt"
	"log"
	"net"

	"github.com/kilimba-labs/utxochain/coin"
)

// sendRaw dials addr and writes data, dropping addr from the peer set on
// failure rather than panicking — an unreachable peer is routine, not fatal.
func (n *Node) sendRaw(addr string, data []byte) {
	conn, err := net.Dial(protocol, addr)
	if err != nil {
		log.Printf("p2p: %s unreachable: %v", addr, err)
		n.peers.remove(addr)
		return
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		log.Printf("p2p: write to %s: %v", addr, err)
	}
}

func (n *Node) sendVersion(addr string) error {
	height, err := n.Chain.GetBestHeight()
	if err != nil {
		return err
	}
	body, err := frame(cmdVersion, versionMsg{Version: version, BestHeight: height, AddrFrom: n.Addr})
	if err != nil {
		return err
	}
	n.sendRaw(addr, body)
	return nil
}

func (n *Node) sendGetBlocks(addr string) error {
	body, err := frame(cmdGetBlocks, getBlocksMsg{AddrFrom: n.Addr})
	if err != nil {
		return err
	}
	n.sendRaw(addr, body)
	return nil
}

func (n *Node) sendGetData(addr string, kind Kind, id []byte) error {
	body, err := frame(cmdGetData, getDataMsg{AddrFrom: n.Addr, Kind: kind, ID: id})
	if err != nil {
		return err
	}
	n.sendRaw(addr, body)
	return nil
}

func (n *Node) sendInv(addr string, kind Kind, items [][]byte) error {
	body, err := frame(cmdInv, invMsg{AddrFrom: n.Addr, Kind: kind, Items: items})
	if err != nil {
		return err
	}
	n.sendRaw(addr, body)
	return nil
}

func (n *Node) sendBlock(addr string, b *coin.Block) error {
	body, err := frame(cmdBlock, blockMsg{AddrFrom: n.Addr, Block: b.Serialize()})
	if err != nil {
		return err
	}
	n.sendRaw(addr, body)
	return nil
}

func (n *Node) sendTx(addr string, tx *coin.Transaction) error {
	body, err := frame(cmdTx, txMsg{AddrFrom: n.Addr, Transaction: tx.Serialize()})
	if err != nil {
		return err
	}
	n.sendRaw(addr, body)
	return nil
}

// requestBlocks asks every known peer for its block inventory. Serve does
// not call it: a sync starts from the version handshake instead.
func (n *Node) requestBlocks() {
	for _, addr := range n.knownPeerAddrs() {
		if err := n.sendGetBlocks(addr); err != nil {
			log.Printf("p2p: getblocks to %s: %v", addr, err)
		}
	}
}

// broadcast sends an inv of kind/items to every known peer except self and
// the optional excluded address.
func (n *Node) broadcast(exclude string, kind Kind, items [][]byte) {
	for _, addr := range n.knownPeerAddrs() {
		if addr == n.Addr || addr == exclude {
			continue
		}
		if err := n.sendInv(addr, kind, items); err != nil {
			log.Printf("p2p: inv to %s: %v", addr, err)
		}
	}
}

var errUnknownCommand = fmt.Errorf("p2p: unknown command")

// SendTxToBootstrap hands a freshly built transaction to the bootstrap node
// for relay, the entry point a non-serving CLI invocation uses to submit a
// transaction without running its own accept loop.
func (n *Node) SendTxToBootstrap(tx *coin.Transaction) error {
	return n.sendTx(BootstrapAddr, tx)
}
