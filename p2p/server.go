package p2p

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"runtime"
	"syscall"

	"github.com/vrecan/death/v3"
)

// Serve binds Addr and runs the accept loop until the process receives a
// shutdown signal or the listener fails. A node other than the bootstrap
// node first sends its version to the bootstrap node, which starts the
// height handshake; the bootstrap node sends nothing at startup and waits
// for peers to contact it.
func (n *Node) Serve() error {
	ln, err := net.Listen(protocol, n.Addr)
	if err != nil {
		return fmt.Errorf("p2p: listen on %s: %w", n.Addr, err)
	}
	defer ln.Close()

	go n.awaitShutdown()

	if !n.isBootstrap() {
		if err := n.sendVersion(BootstrapAddr); err != nil {
			log.Printf("p2p: announce to bootstrap: %v", err)
		}
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("p2p: accept: %w", err)
		}
		go n.handleConnection(conn)
	}
}

// handleConnection reads at most recvLimit bytes from a single connection —
// one message per connection, matching the protocol's request/response
// shape — and dispatches it.
func (n *Node) handleConnection(conn net.Conn) {
	defer conn.Close()

	limited := io.LimitReader(conn, recvLimit)
	msg, err := io.ReadAll(limited)
	if err != nil {
		log.Printf("p2p: read from %s: %v", conn.RemoteAddr(), err)
		return
	}

	if err := n.dispatch(msg); err != nil {
		log.Printf("p2p: handling message from %s: %v", conn.RemoteAddr(), err)
	}
}

// awaitShutdown closes the chain's database cleanly on SIGINT/SIGTERM so
// Badger never gets killed mid-write.
func (n *Node) awaitShutdown() {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	d.WaitForDeathWithFunc(func() {
		defer os.Exit(0)
		defer runtime.Goexit()
		n.Chain.Database.Close()
	})
}
