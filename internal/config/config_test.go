package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "API Documentation", cfg.Info.Title)
	assert.Equal(t, "1.0.0", cfg.Info.Version)
	assert.Equal(t, "openapi.yaml", cfg.Output)
	assert.Equal(t, filepath.Join(dir, "routes.yaml"), cfg.RoutesPath())

	shell := cfg.Shell()
	require.Contains(t, shell.Components.SecuritySchemes, "bearerAuth")
	scheme := shell.Components.SecuritySchemes["bearerAuth"].Value
	assert.Equal(t, "http", scheme.Type)
	assert.Equal(t, "bearer", scheme.Scheme)
	assert.Equal(t, "JWT", scheme.BearerFormat)
}

func TestLoadOverlay(t *testing.T) {
	dir := writeConfig(t, `
info:
  title: Shop API
  version: 2.1.0
  description: Orders and users
servers:
  - url: https://api.example.com
tags:
  - name: users
    description: User management
securitySchemes:
  apiKey:
    type: apiKey
    in: header
    name: X-API-Key
  broken: not-a-mapping
schemas:
  Money:
    kind: object
    properties:
      amount: { kind: number, checks: [{ kind: min, value: 0 }] }
      currency: { kind: enum, values: [EUR, USD] }
responses:
  NotModified:
    description: Unchanged since the given ETag
  Conflict:
    description: Version conflict
    schema:
      kind: object
      properties:
        message: string
routes: api/routes.yaml
output: docs/openapi.json
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "Shop API", cfg.Info.Title)
	assert.Equal(t, "2.1.0", cfg.Info.Version)
	assert.Equal(t, filepath.Join(dir, "api", "routes.yaml"), cfg.RoutesPath())
	assert.Equal(t, "docs/openapi.json", cfg.Output)

	shell := cfg.Shell()
	assert.Equal(t, "3.0.3", shell.OpenAPI)
	assert.Equal(t, "Orders and users", shell.Info.Description)
	require.Len(t, shell.Servers, 1)
	assert.Equal(t, "https://api.example.com", shell.Servers[0].URL)
	require.Len(t, shell.Tags, 1)
	assert.Equal(t, "users", shell.Tags[0].Name)

	schemes := shell.Components.SecuritySchemes
	assert.Contains(t, schemes, "bearerAuth", "default scheme is kept alongside configured ones")
	require.Contains(t, schemes, "apiKey")
	assert.Equal(t, "header", schemes["apiKey"].Value.In)
	assert.Equal(t, "X-API-Key", schemes["apiKey"].Value.Name)
	assert.NotContains(t, schemes, "broken")

	require.Contains(t, shell.Components.Schemas, "Money")
	money := shell.Components.Schemas["Money"].Value
	assert.ElementsMatch(t, []string{"amount", "currency"}, money.Required)
	require.NotNil(t, money.Properties["amount"].Value.Min)
	assert.Equal(t, 0.0, *money.Properties["amount"].Value.Min)
	assert.Equal(t, []any{"EUR", "USD"}, money.Properties["currency"].Value.Enum)

	require.Contains(t, shell.Components.Responses, "NotModified")
	notModified := shell.Components.Responses["NotModified"].Value
	assert.Equal(t, "Unchanged since the given ETag", *notModified.Description)
	assert.Empty(t, notModified.Content)

	conflict := shell.Components.Responses["Conflict"].Value
	require.NotNil(t, conflict.Content.Get("application/json"))
	assert.Contains(t, conflict.Content.Get("application/json").Schema.Value.Properties, "message")
}

func TestLoadPartialInfoKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, "info:\n  title: Only A Title\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Only A Title", cfg.Info.Title)
	assert.Equal(t, "1.0.0", cfg.Info.Version)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid yaml", body: "info: [unclosed"},
		{name: "empty title", body: "info:\n  title: \"\"\n  version: 1.0.0\n"},
		{name: "null info", body: "info: null\n"},
		{name: "properties not a mapping", body: "schemas:\n  Bad:\n    kind: object\n    properties: [a, b]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestShellIsIndependentCopy(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	a := cfg.Shell()
	a.Info.Title = "changed"
	b := cfg.Shell()
	assert.Equal(t, "API Documentation", b.Info.Title)
	assert.Equal(t, "API Documentation", cfg.Info.Title)
}
