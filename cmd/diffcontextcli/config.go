// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

// Config is the shape of diffcontext.yaml, loaded once in rootCmd's
// PersistentPreRun and consulted by the bundle subcommand for defaults a
// flag didn't override.
type Config struct {
	BudgetTokens int      `yaml:"budget_tokens"`
	Alpha        float64  `yaml:"alpha"`
	Tau          float64  `yaml:"tau"`
	Ignore       []string `yaml:"ignore"`
}

var config Config
