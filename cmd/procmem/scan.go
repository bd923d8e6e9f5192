package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/xyproto/procmem"
)

// scanWithProgress runs pattern over the target's address space behind a
// progress bar sized to the module list captured at attach time. The
// scanner walks regions, not modules, and ScanMemory has no incremental
// callback, so the bar does not advance during the scan: it is filled in
// one step when the scan returns.
func scanWithProgress(pattern string, start uintptr) []uintptr {
	modules := session.Modules()
	bar := progressbar.Default(int64(len(modules))+1, "scanning")
	defer bar.Close()

	matches := session.ScanMemoryText(pattern, start)
	bar.Add(len(modules) + 1)
	return matches
}

func newScanCmd() *cobra.Command {
	var start string
	var recipe string
	var name string
	cmd := &cobra.Command{
		Use:   "scan <pattern>",
		Short: "Scan the target process's memory for a byte signature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProcess(cmd); err != nil {
				return err
			}

			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			if recipe != "" {
				r, err := procmem.LoadScanRecipe(recipe)
				if err != nil {
					return err
				}
				spec, ok := r.Scan(name)
				if !ok {
					return fmt.Errorf("scan: recipe %s has no scan named %q", recipe, name)
				}
				pattern = spec.Pattern
			}
			if pattern == "" {
				return fmt.Errorf("scan: no pattern given (pass one positionally or via --recipe/--name)")
			}

			var startAddr uintptr
			if start != "" {
				startAddr = session.ResolveText(start, "")
			}

			matches := scanWithProgress(pattern, startAddr)
			for _, m := range matches {
				fmt.Printf("0x%X\n", m)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d match(es)\n", len(matches))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "address (or module[+offset]) to begin scanning from")
	cmd.Flags().StringVar(&recipe, "recipe", "", "YAML scan/cave recipe file")
	cmd.Flags().StringVar(&name, "name", "", "named scan entry within --recipe")
	return cmd
}
