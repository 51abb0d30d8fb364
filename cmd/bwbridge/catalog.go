// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/config"
	"github.com/holomush/bwbridge/internal/engine/remote"
	"github.com/holomush/bwbridge/internal/logging"
)

// CodeUnknownCategory marks a --category value that names no table.
const CodeUnknownCategory = "UNKNOWN_CATEGORY"

// catalogConfig holds configuration for the catalog command.
type catalogConfig struct {
	categories []string
	pattern    string
}

// CatalogDeps contains injectable dependencies for the catalog command.
type CatalogDeps struct {
	// EngineFactory creates the engine host client.
	// Default: remote.New
	EngineFactory func(cfg config.EngineConfig, logger *slog.Logger) bridge.Engine
}

// NewCatalogCmd creates the catalog subcommand with all flags configured.
func NewCatalogCmd() *cobra.Command {
	cfg := &catalogConfig{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Dump the engine's static catalog as YAML",
		Long: `Connect to the engine host once, load its static type tables, and
print the selected categories as YAML.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engCfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCatalog(cmd, engCfg, cfg, nil)
		},
	}

	config.RegisterEngineFlags(cmd.Flags())
	cmd.Flags().StringSliceVar(&cfg.categories, "category", nil, "categories to dump (default: all)")
	cmd.Flags().StringVar(&cfg.pattern, "match", "", "glob over entry names, e.g. 'Terran_*'")

	return cmd
}

// runCatalog executes the catalog command.
func runCatalog(cmd *cobra.Command, cfg *config.Config, ccfg *catalogConfig, deps *CatalogDeps) error {
	if deps == nil {
		deps = &CatalogDeps{}
	}
	if deps.EngineFactory == nil {
		deps.EngineFactory = func(cfg config.EngineConfig, logger *slog.Logger) bridge.Engine {
			return remote.New(cfg.Network, cfg.Addr,
				remote.WithDialTimeout(cfg.DialTimeout),
				remote.WithVersion(version),
				remote.WithLogger(logger),
			)
		}
	}

	cats := make([]catalog.Category, 0, len(ccfg.categories))
	for _, name := range ccfg.categories {
		c, ok := catalog.ParseCategory(name)
		if !ok {
			return oops.Code(CodeUnknownCategory).With("category", name).Errorf("unknown category %q", name)
		}
		cats = append(cats, c)
	}

	logger := logging.Setup("bwbridge", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.DialTimeout+shutdownTimeout)
	defer cancel()

	eng := deps.EngineFactory(cfg.Engine, logger)
	if err := eng.Connect(ctx); err != nil {
		return oops.With("addr", cfg.Engine.Addr).Wrapf(err, "connect to engine")
	}
	defer func() { _ = eng.Close() }()

	cat, err := catalog.Load(ctx, eng, catalog.WithLogger(logger))
	if err != nil {
		return oops.Wrapf(err, "load catalog")
	}
	doc, err := cat.Export(cats, ccfg.pattern)
	if err != nil {
		return err
	}
	return doc.WriteYAML(cmd.OutOrStdout())
}
