package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xyproto/procmem"
)

func newCaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cave",
		Short: "Install or free a code cave",
	}
	cmd.AddCommand(newCaveInstallCmd(), newCaveFreeCmd())
	return cmd
}

func newCaveInstallCmd() *cobra.Command {
	var payload string
	var bytesReplaced int
	var jumpBack bool
	var size int
	var recipe string
	var name string
	cmd := &cobra.Command{
		Use:   "install <donor>",
		Short: "Install a code cave at donor, redirecting it with a near jump",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProcess(cmd); err != nil {
				return err
			}

			donorText := ""
			if len(args) == 1 {
				donorText = args[0]
			}
			if recipe != "" {
				r, err := procmem.LoadScanRecipe(recipe)
				if err != nil {
					return err
				}
				spec, ok := r.Cave(name)
				if !ok {
					return fmt.Errorf("cave install: recipe %s has no cave named %q", recipe, name)
				}
				donorText = spec.Donor
				payload = spec.Payload
				bytesReplaced = spec.BytesReplaced
				jumpBack = spec.JumpBackOr(true)
				if spec.Size > 0 {
					size = spec.Size
				}
			}
			if donorText == "" {
				return fmt.Errorf("cave install: no donor address given")
			}

			donor := session.ResolveText(donorText, "")
			if donor == 0 {
				return fmt.Errorf("cave install: %s", lastDiagnostic(session))
			}

			addr := session.CreateCodeCaveText(donor, payload, bytesReplaced, jumpBack, uintptr(size))
			if addr == 0 {
				return fmt.Errorf("cave install: %s", lastDiagnostic(session))
			}
			fmt.Printf("0x%X\n", addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "", "hex-byte payload to write into the cave")
	cmd.Flags().IntVar(&bytesReplaced, "bytes-replaced", 5, "number of donor-site bytes overwritten (must be >= 5)")
	cmd.Flags().BoolVar(&jumpBack, "jump-back", true, "append a trampoline back to the donor site")
	cmd.Flags().IntVar(&size, "size", 0, "cave allocation size in bytes (0 = library default)")
	cmd.Flags().StringVar(&recipe, "recipe", "", "YAML scan/cave recipe file")
	cmd.Flags().StringVar(&name, "name", "", "named cave entry within --recipe")
	return cmd
}

func newCaveFreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "free <cave-addr>",
		Short: "Free a previously installed cave's allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProcess(cmd); err != nil {
				return err
			}
			addr := session.ResolveText(args[0], "")
			if addr == 0 || !session.FreeCave(addr) {
				return fmt.Errorf("cave free: %s", lastDiagnostic(session))
			}
			return nil
		},
	}
	return cmd
}
