// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

// Command gen-schema writes the JSON Schema of the inventoryauth config file,
// which editors use to complete and check config.yaml.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/inventoryapp/inventoryauth/internal/config"
)

func main() {
	out := pflag.StringP("output", "o", filepath.Join("schemas", "config.schema.json"), "file to write, - for stdout")
	pflag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(outPath string) error {
	schema, err := config.GenerateSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	if outPath == "-" {
		_, err = os.Stdout.Write(append(schema, '\n'))
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(outPath, schema, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Generated %s (%s)\n", outPath, config.SchemaID)
	return nil
}
