package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relaybot",
		Short:         "Chat relay between Discord, a language model and an image generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newCreatePicCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "relaybot: %v\n", err)
		os.Exit(1)
	}
}
