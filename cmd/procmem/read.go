package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReadCmd() *cobra.Command {
	var kind string
	var length int
	var offsets string
	var round int
	cmd := &cobra.Command{
		Use:   "read <addr>",
		Short: "Read a value from the target process's memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProcess(cmd); err != nil {
				return err
			}
			addr := session.ResolveText(args[0], offsets)
			if addr == 0 {
				return fmt.Errorf("read: %s", lastDiagnostic(session))
			}
			switch kind {
			case "int64":
				fmt.Println(session.ReadInt64(addr))
			case "float32":
				if round > 0 {
					fmt.Println(session.ReadFloat32Round(addr, round))
				} else {
					fmt.Println(session.ReadFloat32(addr))
				}
			case "float64":
				if round > 0 {
					fmt.Println(session.ReadFloat64Round(addr, round))
				} else {
					fmt.Println(session.ReadFloat64(addr))
				}
			case "bytes":
				fmt.Printf("% X\n", session.ReadBytes(addr, length))
			case "string":
				fmt.Println(session.ReadString(addr, length, true))
			default:
				fmt.Println(session.ReadInt32(addr))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "int32", "int32|int64|float32|float64|bytes|string")
	cmd.Flags().IntVar(&length, "length", 4, "byte count for bytes/string reads")
	cmd.Flags().StringVar(&offsets, "offsets", "", "space-separated hex offset chain")
	cmd.Flags().IntVar(&round, "round", 0, "round a float32/float64 read half-to-even to this many decimal digits")
	return cmd
}
