// Package cli implements the node's command-line surface: the eight
// subcommands an operator runs against a node's local state or its
// running gossip server.
package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kilimba-labs/utxochain/coin"
	"github.com/kilimba-labs/utxochain/p2p"
	"github.com/kilimba-labs/utxochain/store"
	"github.com/kilimba-labs/utxochain/wallet"
)

// ErrUsage is returned for a missing or unrecognized subcommand, or the
// wrong number/shape of arguments for one that was recognized.
var ErrUsage = errors.New("cli: usage error")

// ErrInvalidAmount is returned when an amount argument is not a valid
// integer — a validation failure (spec.md §7's "User-visible" class),
// distinct from ErrUsage's argument-shape errors.
var ErrInvalidAmount = errors.New("cli: amount must be an integer")

// CommandLine dispatches subcommands for a single node identified by
// NodeID (the NODE_ID environment variable, also this node's listening
// port).
type CommandLine struct {
	NodeID string
}

func (cli *CommandLine) Usage() string {
	return `Usage:
  create_blockchain ADDRESS           create a new blockchain, coinbase to ADDRESS
  send_coin FROM TO AMOUNT MINE_NOW   send AMOUNT from FROM to TO; MINE_NOW is "1" or "0"
  get_balance ADDRESS                 print ADDRESS's balance
  print_blockchain                    print every block from the tip to genesis
  create_wallet                       create a new wallet and print its address
  list_addresses                      list every address in this node's wallet file
  reindex_utxo                        rebuild the UTXO index from the chain
  start_node MINER_ADDR               start the gossip node; MINER_ADDR may be empty`
}

// Run dispatches args[0] (the subcommand) to its handler with args[1:] as
// its positional arguments.
func (cli *CommandLine) Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no subcommand given\n%s", ErrUsage, cli.Usage())
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create_blockchain":
		return cli.createBlockchain(rest)
	case "send_coin":
		return cli.sendCoin(rest)
	case "get_balance":
		return cli.getBalance(rest)
	case "print_blockchain":
		return cli.printBlockchain(rest)
	case "create_wallet":
		return cli.createWallet(rest)
	case "list_addresses":
		return cli.listAddresses(rest)
	case "reindex_utxo":
		return cli.reindexUTXO(rest)
	case "start_node":
		return cli.startNode(rest)
	default:
		return fmt.Errorf("%w: unknown subcommand %q\n%s", ErrUsage, cmd, cli.Usage())
	}
}

func (cli *CommandLine) createBlockchain(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: create_blockchain ADDRESS", ErrUsage)
	}
	address := args[0]
	if !wallet.ValidateAddress(address) {
		return fmt.Errorf("%w: invalid address %q", wallet.ErrInvalidAddress, address)
	}

	chain, err := store.InitBlockChain(address, cli.NodeID)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	utxo := store.UTXOSet{Chain: chain}
	if err := utxo.Reindex(); err != nil {
		return err
	}

	fmt.Println("Finished creating blockchain")
	return nil
}

func (cli *CommandLine) getBalance(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get_balance ADDRESS", ErrUsage)
	}
	address := args[0]
	if !wallet.ValidateAddress(address) {
		return fmt.Errorf("%w: invalid address %q", wallet.ErrInvalidAddress, address)
	}

	chain, err := store.ContinueBlockChain(cli.NodeID)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	pubKeyHash, err := wallet.PublicKeyHashFromAddress(address)
	if err != nil {
		return err
	}

	utxo := store.UTXOSet{Chain: chain}
	balance, err := utxo.GetBalance(pubKeyHash)
	if err != nil {
		return err
	}

	fmt.Printf("Balance of %s: %d\n", address, balance)
	return nil
}

func (cli *CommandLine) sendCoin(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("%w: send_coin FROM TO AMOUNT MINE_NOW", ErrUsage)
	}
	from, to, amountStr, mineNowStr := args[0], args[1], args[2], args[3]

	if !wallet.ValidateAddress(from) {
		return fmt.Errorf("%w: invalid from address %q", wallet.ErrInvalidAddress, from)
	}
	if !wallet.ValidateAddress(to) {
		return fmt.Errorf("%w: invalid to address %q", wallet.ErrInvalidAddress, to)
	}
	amount, err := strconv.Atoi(amountStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	mineNow := mineNowStr == "1"

	chain, err := store.ContinueBlockChain(cli.NodeID)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	wallets, err := wallet.CreateWallets(cli.NodeID)
	if err != nil {
		return err
	}
	senderWallet := wallets.GetWallet(from)
	if senderWallet == nil {
		return fmt.Errorf("%w: no wallet on file for %q", wallet.ErrNoSuchWallet, from)
	}

	utxo := store.UTXOSet{Chain: chain}
	tx, err := store.NewTransaction(senderWallet, from, to, amount, utxo)
	if err != nil {
		return err
	}

	if mineNow {
		cb, err := coin.CoinbaseTx(from, "")
		if err != nil {
			return err
		}
		block, err := chain.MineBlock([]*coin.Transaction{cb, tx})
		if err != nil {
			return err
		}
		if err := utxo.Update(block); err != nil {
			return err
		}
		fmt.Println("Success! Mined block for this send_coin")
		return nil
	}

	node := p2p.NewNode(fmt.Sprintf("127.0.0.1:%s", cli.NodeID), "", chain)
	if err := node.SendTxToBootstrap(tx); err != nil {
		return err
	}
	fmt.Println("Sent transaction to the network")
	return nil
}

func (cli *CommandLine) printBlockchain(_ []string) error {
	chain, err := store.ContinueBlockChain(cli.NodeID)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return err
		}

		fmt.Printf("Prev. hash: %x\n", block.PrevHash)
		fmt.Printf("Hash: %x\n", block.Hash)
		fmt.Printf("PoW: %s\n", strconv.FormatBool(block.ValidatePoW()))
		for _, tx := range block.Transactions {
			fmt.Println(tx)
		}
		fmt.Println()

		if len(block.PrevHash) == 0 {
			break
		}
	}
	return nil
}

func (cli *CommandLine) createWallet(_ []string) error {
	wallets, err := wallet.CreateWallets(cli.NodeID)
	if err != nil {
		return err
	}
	address, err := wallets.AddWallet()
	if err != nil {
		return err
	}

	fmt.Printf("New address: %s\n", address)
	return nil
}

func (cli *CommandLine) listAddresses(_ []string) error {
	wallets, err := wallet.CreateWallets(cli.NodeID)
	if err != nil {
		return err
	}
	for _, address := range wallets.GetAllAddresses() {
		fmt.Println(address)
	}
	return nil
}

func (cli *CommandLine) reindexUTXO(_ []string) error {
	chain, err := store.ContinueBlockChain(cli.NodeID)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	utxo := store.UTXOSet{Chain: chain}
	if err := utxo.Reindex(); err != nil {
		return err
	}

	count, err := utxo.CountTransactions()
	if err != nil {
		return err
	}
	fmt.Printf("Done! There are %d transactions in the UTXO set.\n", count)
	return nil
}

func (cli *CommandLine) startNode(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: start_node [MINER_ADDR]", ErrUsage)
	}
	var minerAddr string
	if len(args) == 1 {
		minerAddr = args[0]
	}
	if minerAddr != "" && !wallet.ValidateAddress(minerAddr) {
		return fmt.Errorf("%w: invalid miner address %q", wallet.ErrInvalidAddress, minerAddr)
	}

	chain, err := store.ContinueBlockChain(cli.NodeID)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	if minerAddr != "" {
		fmt.Printf("Mining is on. Reward address: %s\n", minerAddr)
	}

	node := p2p.NewNode(fmt.Sprintf("127.0.0.1:%s", cli.NodeID), minerAddr, chain)
	return node.Serve()
}
