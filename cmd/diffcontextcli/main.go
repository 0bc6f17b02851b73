// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "diffcontextcli",
	Short: "Build a token-budgeted bundle of fragments relevant to a git diff",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) && configPath == "diffcontext.yaml" {
				return // run with built-in defaults when no config file was set up
			}
			log.Fatalf("Error reading %s: %v", configPath, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "diffcontext.yaml", "path to diffcontext.yaml")
	rootCmd.AddCommand(bundleCmd)
}
