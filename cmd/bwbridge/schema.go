// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/bwbridge/internal/agentrpc"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the agent protocol JSON Schema",
		Long: `Print the JSON Schema describing the agent protocol: the handshake,
every request payload, every notification and the reply envelope.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := agentrpc.GenerateSchema()
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return oops.Wrapf(err, "write schema")
			}
			if err := os.WriteFile(output, data, 0o644); err != nil { //nolint:gosec // schema is public
				return oops.With("path", output).Wrapf(err, "write schema")
			}
			cmd.Printf("Generated %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
