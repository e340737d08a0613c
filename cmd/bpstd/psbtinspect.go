package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lnp-bp/bpstd-go/psbt"
)

type psbtInspectCommand struct {
	Psbt string

	cmd *cobra.Command
}

func newPsbtInspectCommand() *cobra.Command {
	cc := &psbtInspectCommand{}
	cc.cmd = &cobra.Command{
		Use:   "psbtinspect",
		Short: "Decode a PSBT and print its version, input/output counts and finalization status",
		Long: `This command decodes a base64- or hex-encoded PSBT and reports its
version, number of inputs and outputs, and which inputs (if any) are still
unfinalized.`,
		Example: `bpstd psbtinspect --psbt cHNidP8B...`,
		RunE:    cc.execute,
	}
	cc.cmd.Flags().StringVar(&cc.Psbt, "psbt", "", "the base64 or hex encoded PSBT")

	return cc.cmd
}

func decodePsbtArg(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if raw, err := hex.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

func (c *psbtInspectCommand) execute(_ *cobra.Command, _ []string) error {
	if c.Psbt == "" {
		return fmt.Errorf("--psbt is required")
	}

	raw, err := decodePsbtArg(c.Psbt)
	if err != nil {
		return fmt.Errorf("error decoding --psbt (expected hex or "+
			"base64): %w", err)
	}

	p, err := psbt.Decode(raw)
	if err != nil {
		return fmt.Errorf("error decoding psbt: %w", err)
	}

	unfinalized := p.UnfinalizedInputs()

	fmt.Printf("Version:    %d\n", p.Version.ToStandardU32())
	fmt.Printf("Inputs:     %d\n", len(p.Inputs))
	fmt.Printf("Outputs:    %d\n", len(p.Outputs))
	if len(unfinalized) == 0 {
		fmt.Println("Finalized:  yes")
		return nil
	}
	fmt.Printf("Finalized:  no (inputs needing signatures: %v)\n", unfinalized)

	return nil
}
