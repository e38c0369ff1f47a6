package p2p

import (
	"encoding/hex"
	"sync"

	"github.com/kilimba-labs/utxochain/coin"
	"github.com/kilimba-labs/utxochain/store"
)

// BootstrapAddr is the seed node every other node dials first.
const BootstrapAddr = "127.0.0.1:3000"

// maxBlocksInTransit caps the inventory-download queue so a peer cannot
// wedge a node's memory with an unbounded advertised block list.
const maxBlocksInTransit = 500

// peerSet is the set of known peer addresses, guarded by its own mutex
// instead of the package-global bare slice the teacher used.
type peerSet struct {
	mu    sync.Mutex
	peers map[string]struct{}
}

func newPeerSet(seed string) *peerSet {
	return &peerSet{peers: map[string]struct{}{seed: {}}}
}

func (s *peerSet) add(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[addr] = struct{}{}
}

func (s *peerSet) has(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.peers[addr]
	return ok
}

func (s *peerSet) remove(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, addr)
}

func (s *peerSet) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.peers))
	for addr := range s.peers {
		out = append(out, addr)
	}
	return out
}

// mempool is the set of unconfirmed transactions awaiting inclusion in a
// block, guarded by its own mutex.
type mempool struct {
	mu  sync.Mutex
	txs map[string]coin.Transaction
}

func newMempool() *mempool {
	return &mempool{txs: make(map[string]coin.Transaction)}
}

func (m *mempool) put(tx coin.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[hex.EncodeToString(tx.ID)] = tx
}

func (m *mempool) get(id []byte) (coin.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[hex.EncodeToString(id)]
	return tx, ok
}

func (m *mempool) delete(id []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txs, hex.EncodeToString(id))
}

func (m *mempool) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

func (m *mempool) snapshot() []coin.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coin.Transaction, 0, len(m.txs))
	for _, tx := range m.txs {
		out = append(out, tx)
	}
	return out
}

// transitQueue is the FIFO of block hashes this node is mid-download of,
// capped at maxBlocksInTransit so a malicious or buggy peer's inventory
// cannot grow it without bound.
type transitQueue struct {
	mu    sync.Mutex
	queue [][]byte
}

func (q *transitQueue) set(hashes [][]byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(hashes) > maxBlocksInTransit {
		hashes = hashes[:maxBlocksInTransit]
	}
	q.queue = hashes
}

func (q *transitQueue) popFront() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil, false
	}
	head := q.queue[0]
	q.queue = q.queue[1:]
	return head, true
}

func (q *transitQueue) remove(hash []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var remaining [][]byte
	for _, h := range q.queue {
		if string(h) != string(hash) {
			remaining = append(remaining, h)
		}
	}
	q.queue = remaining
}

func (q *transitQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Node owns a running gossip endpoint: its address, its chain and UTXO
// index, and the gossip state (peers, mempool, in-flight block downloads).
type Node struct {
	Addr      string
	MinerAddr string
	Chain     *store.BlockChain
	UTXO      store.UTXOSet
	peers     *peerSet
	pool      *mempool
	inTransit *transitQueue
}

// NewNode wires a Node around an already-open chain. minerAddr may be empty,
// meaning this node never mines.
func NewNode(addr, minerAddr string, chain *store.BlockChain) *Node {
	return &Node{
		Addr:      addr,
		MinerAddr: minerAddr,
		Chain:     chain,
		UTXO:      store.UTXOSet{Chain: chain},
		peers:     newPeerSet(BootstrapAddr),
		pool:      newMempool(),
		inTransit: &transitQueue{},
	}
}

func (n *Node) isBootstrap() bool {
	return n.Addr == BootstrapAddr
}

func (n *Node) knownPeerAddrs() []string {
	return n.peers.list()
}
