// Command utxonode is the executable entry point for a single blockchain
// node: it loads optional .env configuration, reads NODE_ID, and dispatches
// the requested subcommand.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/kilimba-labs/utxochain/cli"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("utxonode: .env: %v", err)
	}

	nodeID := os.Getenv("NODE_ID")
	if nodeID == "" {
		fmt.Fprintln(os.Stderr, "utxonode: NODE_ID environment variable is not set")
		os.Exit(1)
	}

	c := &cli.CommandLine{NodeID: nodeID}
	if err := c.Run(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "utxonode:", err)
		os.Exit(1)
	}
}
