package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var offsets string
	cmd := &cobra.Command{
		Use:   "resolve <addr>",
		Short: "Resolve a symbolic address or pointer chain to a raw address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProcess(cmd); err != nil {
				return err
			}
			addr := session.ResolveText(args[0], offsets)
			if addr == 0 {
				return fmt.Errorf("resolve: %s", lastDiagnostic(session))
			}
			fmt.Printf("0x%X\n", addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&offsets, "offsets", "", "space-separated hex offset chain, e.g. \"10 20\"")
	return cmd
}
