// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	diffcontext "github.com/nikolay-e/treemapper-sub002"
)

var (
	budgetFlag    int
	noContentFlag bool
	fullFlag      bool

	bundleCmd = &cobra.Command{
		Use:   "bundle [repo] [range]",
		Short: "Bundle the fragments relevant to a version-control diff range",
		Args:  cobra.ExactArgs(2),
		Run:   runBundle,
	}
)

func init() {
	bundleCmd.Flags().IntVar(&budgetFlag, "budget-tokens", 0, "token budget, 0 uses diffcontext.yaml or the unlimited default")
	bundleCmd.Flags().BoolVar(&noContentFlag, "no-content", false, "omit fragment content from the output")
	bundleCmd.Flags().BoolVar(&fullFlag, "full", false, "return every fragment of every changed file, bypassing selection")
}

func runBundle(cmd *cobra.Command, args []string) {
	root, diffRange := args[0], args[1]

	opts := []diffcontext.BuildOption{
		diffcontext.WithNoContent(noContentFlag),
		diffcontext.WithFull(fullFlag),
	}
	if budgetFlag > 0 {
		opts = append(opts, diffcontext.WithBudgetTokens(budgetFlag))
	} else if config.BudgetTokens > 0 {
		opts = append(opts, diffcontext.WithBudgetTokens(config.BudgetTokens))
	}
	if config.Alpha > 0 {
		opts = append(opts, diffcontext.WithAlpha(config.Alpha))
	}
	if config.Tau > 0 {
		opts = append(opts, diffcontext.WithTau(config.Tau))
	}
	if len(config.Ignore) > 0 {
		opts = append(opts, diffcontext.WithIgnore(ignoreAny(config.Ignore)))
	}

	dc, err := diffcontext.BuildDiffContext(context.Background(), root, diffRange, opts...)
	if err != nil {
		log.Fatalf("diffcontextcli: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dc); err != nil {
		log.Fatalf("diffcontextcli: encoding output: %v", err)
	}
	fmt.Fprintf(os.Stderr, "%d fragments\n", dc.FragmentCount)
}

// ignoreAny builds an IgnoreFunc that rejects a path matching any of the
// configured substrings, the simplest rule diffcontext.yaml can express.
func ignoreAny(patterns []string) diffcontext.IgnoreFunc {
	return func(relPath string) bool {
		for _, p := range patterns {
			if p != "" && strings.Contains(relPath, p) {
				return true
			}
		}
		return false
	}
}
