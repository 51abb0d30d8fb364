// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// controlComponent names the control socket of a running bridge.
const controlComponent = "bridge"

// NewRootCmd creates the root command for the bwbridge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bwbridge",
		Short: "bwbridge - connect an RTS engine to an out-of-process agent",
		Long: `bwbridge keeps a link to the game engine host, translates its frames
into flat snapshots and events, and hands each tick to an attached agent.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewStopCmd())
	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}
