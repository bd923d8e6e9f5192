package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/xyproto/procmem/ipc"
)

func newServeCmd() *cobra.Command {
	var pipeName string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attached session over a named pipe for out-of-process clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipeName == "" {
				pipeName = ipc.DefaultPipeName()
			}
			stop := make(chan struct{})
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			go func() {
				<-sig
				close(stop)
			}()
			return ipc.Serve(pipeName, session, stop)
		},
	}
	cmd.Flags().StringVar(&pipeName, "pipe", "", `named pipe to listen on, default \\.\pipe\procmem-<pid>`)
	return cmd
}
