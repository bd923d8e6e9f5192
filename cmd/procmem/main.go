// Command procmem is a thin CLI shell over the procmem library (SPEC_FULL.md
// §4 "CLI"): every subcommand except serve attaches to a named process,
// performs one operation, and exits. It carries no state between
// invocations — serve instead keeps the session open and exposes it over
// the ipc package's named pipe until interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xyproto/procmem"
)

var (
	processName string
	verbose     bool
	session     *procmem.Session
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "procmem",
		Short: "Inspect and patch the memory of a running Windows process",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				procmem.SetLogLevel("debug")
			}
			cfg := procmem.DefaultConfig()
			cfg.Verbose = verbose
			session = procmem.NewSession(cfg)
			if processName == "" {
				return nil
			}
			if !session.Attach(processName) {
				return fmt.Errorf("attach %s: %s", processName, lastDiagnostic(session))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if session != nil {
				session.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&processName, "process", "p", "", "image name of the target process, e.g. game.exe")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newResolveCmd(),
		newReadCmd(),
		newWriteCmd(),
		newScanCmd(),
		newCaveCmd(),
		newServeCmd(),
	)
	return root
}

func lastDiagnostic(s *procmem.Session) string {
	if d, ok := s.Diagnostics().Last(); ok {
		return d.Message
	}
	return "unknown failure"
}

func requireProcess(cmd *cobra.Command) error {
	if processName == "" {
		return fmt.Errorf("--process is required for %s", cmd.Name())
	}
	if !session.Active() {
		return fmt.Errorf("%s: %s", cmd.Name(), lastDiagnostic(session))
	}
	return nil
}

func main() {
	logrus.SetOutput(os.Stderr)
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "procmem:", err)
		os.Exit(1)
	}
}
