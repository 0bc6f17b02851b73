// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffcontext

import (
	"github.com/nikolay-e/treemapper-sub002/pkg/logging"
	"github.com/nikolay-e/treemapper-sub002/services/diffcontext/tokencount"
)

// TokenCounterFunc estimates a string's token cost, matching tokencount's
// collaborator contract (§6): the returned bool reports whether the count
// is exact.
type TokenCounterFunc func(text string) (count int, isExact bool, encoding string)

// IgnoreFunc reports whether a repo-relative path should be excluded from
// fragmentation and universe expansion. The core treats the ignore-rule
// provider as an external collaborator (§6); BuildOptions accepts whatever
// predicate the caller built, defaulting to "ignore nothing".
type IgnoreFunc func(relPath string) bool

// BuildOptions configures one BuildDiffContext call.
type BuildOptions struct {
	// BudgetTokens bounds the selector's non-core token spend. Zero means
	// unlimited: τ-stopping alone terminates the selection loop (§6).
	BudgetTokens int

	// Alpha is the PPR damping factor, in (0, 1).
	Alpha float64

	// Tau is the submodular stopping-rule multiplier, >= 0.
	Tau float64

	// NoContent blanks every rendered fragment's Content while keeping
	// every other field, including Preview.
	NoContent bool

	// Full bypasses the graph and selector entirely: every fragment of
	// every changed file is returned, sorted by (path, start_line),
	// independent of budget (§9 Open Questions: edge-discovered and
	// universe-expanded files are excluded from this mode).
	Full bool

	ShouldIgnore IgnoreFunc
	CountTokens  TokenCounterFunc
	Logger       *logging.Logger
}

// BuildOption is a functional option for configuring a BuildDiffContext call.
type BuildOption func(*BuildOptions)

// DefaultBuildOptions returns the entry point's documented defaults (§6).
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Alpha:        0.60,
		Tau:          0.08,
		ShouldIgnore: func(string) bool { return false },
		CountTokens:  tokencount.Count,
		Logger:       logging.Default(),
	}
}

// WithBudgetTokens sets the selector's token budget.
func WithBudgetTokens(n int) BuildOption {
	return func(o *BuildOptions) { o.BudgetTokens = n }
}

// WithAlpha overrides the PPR damping factor.
func WithAlpha(alpha float64) BuildOption {
	return func(o *BuildOptions) { o.Alpha = alpha }
}

// WithTau overrides the submodular stopping threshold.
func WithTau(tau float64) BuildOption {
	return func(o *BuildOptions) { o.Tau = tau }
}

// WithNoContent disables content in the rendered output.
func WithNoContent(noContent bool) BuildOption {
	return func(o *BuildOptions) { o.NoContent = noContent }
}

// WithFull switches to full mode (every fragment of every changed file).
func WithFull(full bool) BuildOption {
	return func(o *BuildOptions) { o.Full = full }
}

// WithIgnore supplies the ignore-rule predicate collaborator.
func WithIgnore(fn IgnoreFunc) BuildOption {
	return func(o *BuildOptions) {
		if fn != nil {
			o.ShouldIgnore = fn
		}
	}
}

// WithTokenCounter supplies the token counter collaborator.
func WithTokenCounter(fn TokenCounterFunc) BuildOption {
	return func(o *BuildOptions) {
		if fn != nil {
			o.CountTokens = fn
		}
	}
}

// WithLogger overrides the logger every non-fatal failure is reported through.
func WithLogger(l *logging.Logger) BuildOption {
	return func(o *BuildOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

func (o *BuildOptions) validate() error {
	if o.Alpha <= 0 || o.Alpha >= 1 {
		return &ConfigError{Field: "alpha", Err: errAlphaRange}
	}
	if o.Tau < 0 {
		return &ConfigError{Field: "tau", Err: errTauNegative}
	}
	if o.BudgetTokens < 0 {
		return &ConfigError{Field: "budget_tokens", Err: errBudgetZero}
	}
	return nil
}
