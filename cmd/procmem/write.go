package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xyproto/procmem"
)

func newWriteCmd() *cobra.Command {
	var kind string
	var offsets string
	cmd := &cobra.Command{
		Use:   "write <addr> <value>",
		Short: "Write a value into the target process's memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProcess(cmd); err != nil {
				return err
			}
			addr := session.ResolveText(args[0], offsets)
			if addr == 0 {
				return fmt.Errorf("write: %s", lastDiagnostic(session))
			}

			ok := false
			switch kind {
			case "int64":
				v, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return err
				}
				ok = session.WriteInt64(addr, v)
			case "float32":
				v, err := strconv.ParseFloat(args[1], 32)
				if err != nil {
					return err
				}
				ok = session.WriteFloat32(addr, float32(v))
			case "float64":
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return err
				}
				ok = session.WriteFloat64(addr, v)
			case "bytes":
				b, parsed := procmem.ParseHexBytes(args[1])
				if !parsed {
					return fmt.Errorf("write: malformed byte signature %q", args[1])
				}
				ok = session.WriteBytes(addr, b)
			default:
				v, err := strconv.ParseInt(args[1], 10, 32)
				if err != nil {
					return err
				}
				ok = session.WriteInt32(addr, int32(v))
			}
			if !ok {
				return fmt.Errorf("write: %s", lastDiagnostic(session))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "int32", "int32|int64|float32|float64|bytes")
	cmd.Flags().StringVar(&offsets, "offsets", "", "space-separated hex offset chain")
	return cmd
}
