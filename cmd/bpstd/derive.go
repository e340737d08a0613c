package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/descriptor"
)

const deriveFormat = `
Descriptor:      %s
Terminal:        %s
Class:           %s
Script pubkey:   %x
Redeem script:   %s
Witness script:  %s
`

type deriveCommand struct {
	Descriptor string
	Terminal   string

	cmd *cobra.Command
}

func newDeriveCommand() *cobra.Command {
	cc := &deriveCommand{}
	cc.cmd = &cobra.Command{
		Use:   "derive",
		Short: "Derive the scriptPubKey of a descriptor at a keychain/index terminal",
		Long: `This command parses an output-script descriptor and derives its
concrete scriptPubKey (plus any redeem/witness script) at the given
keychain/index terminal.`,
		Example: `bpstd derive --descriptor "wpkh([deadbeef/84h/0h/0h]xpub.../<0;1>/*)" \
	--terminal 0/5`,
		RunE: cc.execute,
	}
	cc.cmd.Flags().StringVar(
		&cc.Descriptor, "descriptor", "", "the output-script descriptor string",
	)
	cc.cmd.Flags().StringVar(
		&cc.Terminal, "terminal", "0/0",
		"the keychain/index terminal to derive, e.g. \"0/5\"",
	)

	return cc.cmd
}

func (c *deriveCommand) execute(_ *cobra.Command, _ []string) error {
	if c.Descriptor == "" {
		return fmt.Errorf("--descriptor is required")
	}

	d, err := descriptor.Parse(c.Descriptor)
	if err != nil {
		return fmt.Errorf("error parsing descriptor: %w", err)
	}

	terminal, err := bip32.ParseTerminal(c.Terminal)
	if err != nil {
		return fmt.Errorf("error parsing terminal: %w", err)
	}

	derived, err := d.Derive(terminal)
	if err != nil {
		return fmt.Errorf("error deriving descriptor: %w", err)
	}

	redeem := "n/a"
	if derived.RedeemScript != nil {
		redeem = hex.EncodeToString(derived.RedeemScript)
	}
	witness := "n/a"
	if derived.WitnessScript != nil {
		witness = hex.EncodeToString(derived.WitnessScript)
	}

	fmt.Printf(
		deriveFormat, c.Descriptor, terminal.String(),
		derived.Class.String(), derived.ScriptPubKey, redeem, witness,
	)
	log.Debugf("dust limit for class %s is %d sats", derived.Class,
		derived.Class.DustLimit())

	return nil
}
