package p2p

import (
	"fmt"
	"log"

	"github.com/kilimba-labs/utxochain/coin"
)

// dispatch decodes the fixed 12-byte command prefix and routes the
// remaining payload to the matching handler.
func (n *Node) dispatch(msg []byte) error {
	if len(msg) < commandLength {
		return fmt.Errorf("p2p: message shorter than command prefix")
	}
	cmd := cmdFromBytes(msg[:commandLength])
	payload := msg[commandLength:]

	switch cmd {
	case cmdVersion:
		return n.handleVersion(payload)
	case cmdGetBlocks:
		return n.handleGetBlocks(payload)
	case cmdInv:
		return n.handleInv(payload)
	case cmdGetData:
		return n.handleGetData(payload)
	case cmdBlock:
		return n.handleBlock(payload)
	case cmdTx:
		return n.handleTx(payload)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, cmd)
	}
}

// handleVersion compares chain heights with the peer and syncs whichever
// side is behind, then learns of the peer's address.
func (n *Node) handleVersion(payload []byte) error {
	var msg versionMsg
	if err := gobDecode(payload, &msg); err != nil {
		return err
	}

	height, err := n.Chain.GetBestHeight()
	if err != nil {
		return err
	}

	switch {
	case height < msg.BestHeight:
		if err := n.sendGetBlocks(msg.AddrFrom); err != nil {
			return err
		}
	case height > msg.BestHeight:
		if err := n.sendVersion(msg.AddrFrom); err != nil {
			return err
		}
	}

	n.peers.add(msg.AddrFrom)
	return nil
}

func (n *Node) handleGetBlocks(payload []byte) error {
	var msg getBlocksMsg
	if err := gobDecode(payload, &msg); err != nil {
		return err
	}

	hashes, err := n.Chain.GetBlockHashes()
	if err != nil {
		return err
	}
	return n.sendInv(msg.AddrFrom, KindBlock, hashes)
}

// handleInv acts on an advertised inventory. A block inventory replaces the
// node's download queue and is walked sequentially: the head is requested
// now, and each following hash is only requested once handleBlock has
// processed the previous block. This keeps an in-flight download bounded to
// a single outstanding block request per node instead of firing every
// request in the inventory at once. A transaction inventory requests only
// its first item, and only if that transaction is not already in the
// mempool.
func (n *Node) handleInv(payload []byte) error {
	var msg invMsg
	if err := gobDecode(payload, &msg); err != nil {
		return err
	}
	if len(msg.Items) == 0 {
		return nil
	}

	log.Printf("p2p: received inventory of %d %s", len(msg.Items), msg.Kind)

	switch msg.Kind {
	case KindBlock:
		n.inTransit.set(msg.Items)
		head, ok := n.inTransit.popFront()
		if !ok {
			return nil
		}
		return n.sendGetData(msg.AddrFrom, KindBlock, head)
	case KindTransaction:
		txID := msg.Items[0]
		if _, have := n.pool.get(txID); !have {
			return n.sendGetData(msg.AddrFrom, KindTransaction, txID)
		}
		return nil
	default:
		return fmt.Errorf("p2p: inv with unknown kind")
	}
}

func (n *Node) handleGetData(payload []byte) error {
	var msg getDataMsg
	if err := gobDecode(payload, &msg); err != nil {
		return err
	}

	switch msg.Kind {
	case KindBlock:
		block, err := n.Chain.GetBlock(msg.ID)
		if err != nil {
			return fmt.Errorf("p2p: getdata for block %x: %w", msg.ID, err)
		}
		return n.sendBlock(msg.AddrFrom, block)
	case KindTransaction:
		tx, ok := n.pool.get(msg.ID)
		if !ok {
			return nil
		}
		return n.sendTx(msg.AddrFrom, &tx)
	default:
		return fmt.Errorf("p2p: getdata with unknown kind")
	}
}

// handleBlock adds a received block to the chain, then continues the
// sequential inventory walk (requesting the next queued hash) or, once the
// queue drains, reindexes the UTXO set against the newly extended chain.
func (n *Node) handleBlock(payload []byte) error {
	var msg blockMsg
	if err := gobDecode(payload, &msg); err != nil {
		return err
	}

	block, err := coin.DeserializeBlock(msg.Block)
	if err != nil {
		return err
	}

	if err := n.Chain.AddBlock(block); err != nil {
		return err
	}
	log.Printf("p2p: added block %x", block.Hash)

	if next, ok := n.inTransit.popFront(); ok {
		return n.sendGetData(msg.AddrFrom, KindBlock, next)
	}

	return n.UTXO.Reindex()
}

// handleTx adds a received transaction to the mempool. The bootstrap node
// relays it to every other known peer; any other node mines once it has at
// least two pending transactions and a configured miner address.
func (n *Node) handleTx(payload []byte) error {
	var msg txMsg
	if err := gobDecode(payload, &msg); err != nil {
		return err
	}

	tx, err := coin.DeserializeTransaction(msg.Transaction)
	if err != nil {
		return err
	}
	n.pool.put(tx)

	if n.isBootstrap() {
		n.broadcast(msg.AddrFrom, KindTransaction, [][]byte{tx.ID})
		return nil
	}

	if n.pool.len() >= 2 && n.MinerAddr != "" {
		return n.mineMempool()
	}
	return nil
}

// mineMempool collects every currently valid mempool transaction plus a
// fresh coinbase, mines a block, reindexes the UTXO set, purges the mined
// transactions, and broadcasts the new block. It recurses while
// transactions remain, mirroring a miner that never idles with pending work.
func (n *Node) mineMempool() error {
	var txs []*coin.Transaction
	for _, tx := range n.pool.snapshot() {
		tx := tx
		ok, err := n.Chain.VerifyTransaction(&tx)
		if err != nil {
			log.Printf("p2p: skipping transaction %x: %v", tx.ID, err)
			continue
		}
		if ok {
			txs = append(txs, &tx)
		}
	}
	if len(txs) == 0 {
		log.Println("p2p: no valid transactions to mine")
		return nil
	}

	cb, err := coin.CoinbaseTx(n.MinerAddr, "")
	if err != nil {
		return err
	}
	txs = append(txs, cb)

	newBlock, err := n.Chain.MineBlock(txs)
	if err != nil {
		return err
	}
	if err := n.UTXO.Reindex(); err != nil {
		return err
	}
	log.Printf("p2p: mined block %x", newBlock.Hash)

	for _, tx := range txs {
		n.pool.delete(tx.ID)
	}

	n.broadcast(n.Addr, KindBlock, [][]byte{newBlock.Hash})

	if n.pool.len() > 0 {
		return n.mineMempool()
	}
	return nil
}
