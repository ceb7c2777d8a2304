// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "dicemesh-node",
		Short: "Run a dicemesh peer",
		Long:  `dicemesh-node runs one peer of a Byzantine-fault-tolerant peer-to-peer dice game mesh.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the node and join the mesh",
		RunE:  runNode,
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new peer identity key",
		RunE:  runKeygen,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (the node logger's level is not changed)")
	rootCmd.AddCommand(runCmd, keygenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
