// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inventoryapp/inventoryauth/internal/auth/authtest"
	"github.com/inventoryapp/inventoryauth/internal/config"
	"github.com/inventoryapp/inventoryauth/pkg/errutil"
)

func TestConfigShow_RedactsSecrets(t *testing.T) {
	isolate(t)

	out, err := execute(context.Background(), t, nil, "config", "show", "--config", writeConfig(t, ""), "--log-level", "debug")
	require.NoError(t, err)
	assert.NotContains(t, out, authtest.SigningKey)
	assert.NotContains(t, out, "s3cret")

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "REDACTED", shown.Auth.SigningKey)
	assert.Equal(t, "debug", shown.Log.Level, "flags override the file")
	assert.Equal(t, authtest.Issuer, shown.Auth.Issuer)
	assert.Equal(t, config.Default().Auth.AccessTTL, shown.Auth.AccessTTL)
}

func TestConfigValidate(t *testing.T) {
	isolate(t)

	t.Run("complete file", func(t *testing.T) {
		path := writeConfig(t, "")
		out, err := execute(context.Background(), t, nil, "config", "validate", path, "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "matches the schema")
		assert.Contains(t, out, "Configuration is valid")
	})

	t.Run("schema violation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("http:\n  adress: \":8080\"\n"), 0o600))
		_, err := execute(context.Background(), t, nil, "config", "validate", path)
		errutil.AssertErrorCode(t, err, config.CodeInvalid)
	})

	t.Run("incomplete merged config", func(t *testing.T) {
		_, err := execute(context.Background(), t, nil, "config", "validate")
		errutil.AssertErrorCode(t, err, config.CodeInvalid)
		assert.Contains(t, err.Error(), "database.url")
	})
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(context.Background(), t, nil, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}
