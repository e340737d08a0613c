package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lnp-bp/bpstd-go/xpub"
)

const xpubInfoFormat = `
Network:              %s
Depth:                %d
Parent fingerprint:   %s
Child number:         %d
Fingerprint:          %s
Extended public key:  %s
`

type xpubInfoCommand struct {
	Xpub string

	cmd *cobra.Command
}

func newXpubInfoCommand() *cobra.Command {
	cc := &xpubInfoCommand{}
	cc.cmd = &cobra.Command{
		Use:   "xpubinfo",
		Short: "Decode a base58check extended public key and print its fields",
		Example: `bpstd xpubinfo --xpub xpub6C...`,
		RunE: cc.execute,
	}
	cc.cmd.Flags().StringVar(&cc.Xpub, "xpub", "", "the base58check xpub string")

	return cc.cmd
}

func (c *xpubInfoCommand) execute(_ *cobra.Command, _ []string) error {
	if c.Xpub == "" {
		return fmt.Errorf("--xpub is required")
	}

	x, err := xpub.ParseXpub(c.Xpub)
	if err != nil {
		return fmt.Errorf("error parsing xpub: %w", err)
	}

	fmt.Printf(
		xpubInfoFormat, x.Network(), x.Depth(),
		x.ParentFingerprint(), x.ChildNumber(), x.Fingerprint(),
		x.String(),
	)
	log.Debugf("xpub id (full hash160): %s", x.Id())

	return nil
}
