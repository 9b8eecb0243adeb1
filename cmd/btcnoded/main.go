package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/btcarch/node/node"
	"github.com/btcarch/node/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type multiStringFlag []string

func (m *multiStringFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiStringFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := node.DefaultConfig()
	var peers multiStringFlag

	fs := flag.NewFlagSet("btcnoded", flag.ContinueOnError)
	fs.SetOutput(stderr)

	peerCSV := fs.String("peers", "", "bootstrap peers, comma-separated host:port")
	fs.Var(&peers, "peer", "single bootstrap peer host:port (repeatable)")
	configPath := fs.String("config", "", "path to a JSON config file, deep-merged onto defaults")
	dataDir := fs.String("datadir", "", "directory for the bbolt-backed block store (empty: in-memory only)")
	bindHost := fs.String("bind-host", defaults.Listen.Host, "listen host")
	bindPort := fs.Int("bind-port", defaults.Listen.Port, "listen port")
	maxConnections := fs.Int("max-connections", defaults.MaxConnections, "max connected peers")
	headersOnly := fs.Bool("headers-only", defaults.HeadersOnly, "sync headers only, not full blocks")
	magic := fs.Uint("magic", 0xd9b4bef9, "network magic (uint32)")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := node.ConfigFromFile(*configPath, warnUnrecognized(stderr))
		if err != nil {
			fmt.Fprintf(stderr, "config load failed: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	cfg.Listen.Host = *bindHost
	cfg.Listen.Port = *bindPort
	cfg.MaxConnections = *maxConnections
	cfg.HeadersOnly = *headersOnly
	cfg.Connect = node.NormalizePeers(append([]string{*peerCSV}, peers...)...)

	if err := node.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	if err := printConfig(stdout, cfg); err != nil {
		fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}
	if *dryRun {
		return 0
	}

	var st store.Store
	if *dataDir != "" {
		if err := os.MkdirAll(*dataDir, 0o750); err != nil {
			fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
			return 2
		}
		bolt, err := store.OpenBolt(*dataDir + "/blocks.bolt")
		if err != nil {
			fmt.Fprintf(stderr, "store open failed: %v\n", err)
			return 2
		}
		defer bolt.Close()
		st = bolt
	} else {
		st = store.NewMemory()
	}

	n, err := node.New(cfg, st, uint32(*magic), nil)
	if err != nil {
		fmt.Fprintf(stderr, "node init failed: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n.Start(ctx)
	fmt.Fprintln(stdout, "btcnoded running")
	<-ctx.Done()
	n.Stop(context.Background())
	fmt.Fprintln(stdout, "btcnoded stopped")
	return 0
}

func warnUnrecognized(w io.Writer) func(key string) {
	return func(key string) {
		fmt.Fprintf(w, "config: ignoring unrecognized key %q\n", key)
	}
}

func printConfig(w io.Writer, cfg node.Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
