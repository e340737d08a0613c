package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lnp-bp/bpstd-go/descriptor"
)

type descIDCommand struct {
	Descriptor string

	cmd *cobra.Command
}

func newDescIDCommand() *cobra.Command {
	cc := &descIDCommand{}
	cc.cmd = &cobra.Command{
		Use:   "descid",
		Short: "Compute the stable identifier of a descriptor",
		Long: `This command prints a descriptor's id, the first eight bytes of
SHA-256("wallet-descriptor" || len(spk) || spk) where spk is the
descriptor's scriptPubKey at the external/0 terminal, rendered as
"XXXXXXXX-XXXXXXXX".`,
		RunE: cc.execute,
	}
	cc.cmd.Flags().StringVar(
		&cc.Descriptor, "descriptor", "", "the output-script descriptor string",
	)

	return cc.cmd
}

func (c *descIDCommand) execute(_ *cobra.Command, _ []string) error {
	if c.Descriptor == "" {
		return fmt.Errorf("--descriptor is required")
	}

	d, err := descriptor.Parse(c.Descriptor)
	if err != nil {
		return fmt.Errorf("error parsing descriptor: %w", err)
	}

	id, err := d.Id()
	if err != nil {
		return fmt.Errorf("error computing descriptor id: %w", err)
	}
	fmt.Println(id.String())

	return nil
}
