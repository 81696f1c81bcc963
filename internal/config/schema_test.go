// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package config

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventoryapp/inventoryauth/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SchemaID, doc["$id"])

	props := doc["properties"].(map[string]any)
	for _, key := range []string{"database", "http", "metrics", "log", "auth", "janitor"} {
		assert.Contains(t, props, key)
	}
	auth := props["auth"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, auth, "signing_key")
	assert.Equal(t, "string", auth["access_ttl"].(map[string]any)["type"])
	assert.NotContains(t, doc, "required")
}

func TestValidateYAML(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"partial file", "auth:\n  issuer: inventory-api\n", true},
		{"durations as strings", "auth:\n  access_ttl: 45m\njanitor:\n  interval: 12h\n  enabled: true\n", true},
		{"unknown section", "cache:\n  size: 3\n", false},
		{"unknown key", "http:\n  port: 8080\n", false},
		{"wrong type", "http:\n  rate_burst: lots\n", false},
		{"bad log format", "log:\n  format: xml\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYAML([]byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, CodeInvalid)
		})
	}
}

func TestValidateYAML_Empty(t *testing.T) {
	errutil.AssertErrorCode(t, ValidateYAML(nil), CodeInvalid)
	errutil.AssertErrorCode(t, ValidateYAML([]byte("a: [")), CodeInvalid)
}

func TestValidateFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "metrics:\n  addr: \"\"\n")
	require.NoError(t, ValidateFile(path))

	err := ValidateFile(filepath.Join(t.TempDir(), "missing.yaml"))
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}
