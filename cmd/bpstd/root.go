package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"

	"github.com/lnp-bp/bpstd-go/network"
)

const version = "0.1.0"

var (
	flagTestnet  bool
	flagTestnet4 bool
	flagSignet   bool
	flagRegtest  bool

	activeNetwork = network.Mainnet

	log btclog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bpstd",
	Short: "bpstd derives and inspects output-script descriptors, extended keys and PSBTs",
	Long: `bpstd is a small command line front end over the bpstd-go wallet
primitives library: it derives scriptPubKeys from output-script
descriptors, decodes extended keys and inspects PSBTs. It does not talk to
a node, a wallet database or the network; every subcommand works on the
bytes and strings it is given.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case flagTestnet:
			activeNetwork = network.Testnet3
		case flagTestnet4:
			activeNetwork = network.Testnet4
		case flagSignet:
			activeNetwork = network.Signet
		case flagRegtest:
			activeNetwork = network.Regtest
		default:
			activeNetwork = network.Mainnet
		}

		setupLogging()
		log.Debugf("bpstd version v%s, network %s", version, activeNetwork)

		return nil
	},
	DisableAutoGenTag: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&flagTestnet, "testnet", "t", false,
		"use testnet3 network parameters",
	)
	rootCmd.PersistentFlags().BoolVar(
		&flagTestnet4, "testnet4", false,
		"use testnet4 network parameters",
	)
	rootCmd.PersistentFlags().BoolVar(
		&flagSignet, "signet", false, "use signet network parameters",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagRegtest, "regtest", "r", false,
		"use regtest network parameters",
	)

	rootCmd.AddCommand(
		newDeriveCommand(),
		newDescIDCommand(),
		newXpubInfoCommand(),
		newPsbtInspectCommand(),
	)
}

func setupLogging() {
	logger := btclog.NewSLogger(btclog.NewDefaultHandler(os.Stdout))
	logger.SetLevel(btclog.LevelInfo)
	log = logger
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
