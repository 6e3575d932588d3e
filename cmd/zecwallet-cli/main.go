package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/decred/slog"
	"github.com/spf13/cobra"

	"github.com/adityapk00/zecwallet-lite/build"
	"github.com/adityapk00/zecwallet-lite/modules/chainservice"
	"github.com/adityapk00/zecwallet-lite/modules/lightclient"
	"github.com/adityapk00/zecwallet-lite/modules/wallet"
	"github.com/adityapk00/zecwallet-lite/types"
)

type cliConfig struct {
	server       string
	chain        string
	seedPhrase   string
	birthday     uint64
	walletFile   string
	spendParams  string
	outputParams string
	noTLS        bool
	debug        bool
}

func main() {
	cfg := &cliConfig{}

	root := &cobra.Command{
		Use:     "zecwallet-cli",
		Short:   "A command line shielded light wallet",
		Version: build.Version.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, args)
		},
	}
	root.Flags().StringVar(&cfg.server, "server", "lightwalletd.zecwallet.co:9067", "lightwalletd server to connect to")
	root.Flags().StringVar(&cfg.chain, "chain", "main", "chain to use: main, test or regtest")
	root.Flags().StringVar(&cfg.seedPhrase, "seed", "", "restore the wallet from a 24-word seed phrase")
	root.Flags().Uint64Var(&cfg.birthday, "birthday", 0, "block height the wallet was created at")
	root.Flags().StringVar(&cfg.walletFile, "wallet", "zecwallet-wallet.dat", "wallet file to load and save")
	root.Flags().StringVar(&cfg.spendParams, "spend-params", "sapling-spend.params", "path to the sapling spend parameters")
	root.Flags().StringVar(&cfg.outputParams, "output-params", "sapling-output.params", "path to the sapling output parameters")
	root.Flags().BoolVar(&cfg.noTLS, "no-tls", false, "connect to the server without TLS")
	root.Flags().BoolVar(&cfg.debug, "debug", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *cliConfig, args []string) error {
	params, err := types.ParamsForChain(cfg.chain)
	if err != nil {
		return err
	}

	backend := slog.NewBackend(os.Stderr)
	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	walletLog := backend.Logger("WLLT")
	walletLog.SetLevel(level)
	clientLog := backend.Logger("LTCL")
	clientLog.SetLevel(level)
	wallet.UseLogger(walletLog)
	lightclient.UseLogger(clientLog)

	chain, err := chainservice.New(cfg.server, !cfg.noTLS)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %v", cfg.server, err)
	}
	defer chain.Close()

	lcCfg := lightclient.Config{
		Server:   cfg.server,
		Params:   params,
		Birthday: cfg.birthday,
	}
	// The sapling parameters are only needed to build spends; a missing
	// file still allows a watch-and-receive session.
	if raw, err := os.ReadFile(cfg.spendParams); err == nil {
		lcCfg.SpendParams = raw
	}
	if raw, err := os.ReadFile(cfg.outputParams); err == nil {
		lcCfg.OutputParams = raw
	}

	lc, err := openClient(cfg, lcCfg, chain)
	if err != nil {
		return err
	}
	defer lc.Close()

	// One-shot mode: `zecwallet-cli balance`.
	ctx := context.Background()
	if len(args) > 0 {
		fmt.Println(lc.DoCommand(ctx, args[0], strings.Join(args[1:], " ")))
		return saveWallet(cfg, lc)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("ready.\n> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		cmd, cmdArgs := line, ""
		if i := strings.IndexByte(line, ' '); i > 0 {
			cmd, cmdArgs = line[:i], strings.TrimSpace(line[i+1:])
		}
		if cmd == "quit" || cmd == "exit" {
			break
		}
		fmt.Println(lc.DoCommand(ctx, cmd, cmdArgs))
		fmt.Print("> ")
	}
	return saveWallet(cfg, lc)
}

// openClient loads the wallet file if present, otherwise creates or restores
// a wallet.
func openClient(cfg *cliConfig, lcCfg lightclient.Config, chain *chainservice.Client) (*lightclient.LightClient, error) {
	if f, err := os.Open(cfg.walletFile); err == nil {
		defer f.Close()
		w, err := wallet.ReadWallet(f, lcCfg.Params)
		if err != nil {
			return nil, fmt.Errorf("could not read wallet file %s: %v", cfg.walletFile, err)
		}
		return lightclient.NewFromWallet(lcCfg, chain, w)
	}
	if cfg.seedPhrase != "" {
		return lightclient.NewFromPhrase(lcCfg, chain, cfg.seedPhrase)
	}
	return lightclient.New(lcCfg, chain)
}

func saveWallet(cfg *cliConfig, lc *lightclient.LightClient) error {
	f, err := os.Create(cfg.walletFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return lc.Wallet().WriteTo(f)
}
