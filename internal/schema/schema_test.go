package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodeYAML(t *testing.T, content string) interface{} {
	t.Helper()
	var doc interface{}
	require.NoError(t, yaml.Unmarshal([]byte(content), &doc))
	return doc
}

func TestValidateDocument_Valid(t *testing.T) {
	docs := map[string]string{
		"empty mapping": `{}`,
		"null containers": `
services:
networks:
`,
		"short syntax": `
services:
  web:
    image: nginx
    networks: [a, b]
networks:
  a:
    driver: overlay
  b:
    external: true
`,
		"long syntax and legacy external": `
services:
  web:
    networks:
      a:
        aliases: [web]
      b:
networks:
  a:
    external:
      name: shared
  b:
`,
		"unrelated fields are not checked": `
version: 3
services:
  web:
    ports: 80
    environment: [A=1]
x-anything: [1, 2]
`,
	}

	for name, content := range docs {
		t.Run(name, func(t *testing.T) {
			result := ValidateDocument(decodeYAML(t, content))
			assert.True(t, result.Valid, "%v", result.Errors)
		})
	}
}

func TestValidateDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		message string
	}{
		{
			name:    "root not a mapping",
			content: `[1, 2]`,
			path:    "",
			message: "expected object, got array",
		},
		{
			name:    "services not a mapping",
			content: "services: [web]",
			path:    "services",
			message: "expected object or null, got array",
		},
		{
			name:    "service not a mapping",
			content: "services:\n  web: 42",
			path:    "services.web",
			message: "expected object or null, got number",
		},
		{
			name:    "networks entry not a string",
			content: "services:\n  web:\n    networks: [true]",
			path:    "services.web.networks[0]",
			message: "expected string, got boolean",
		},
		{
			name:    "external not a boolean",
			content: "networks:\n  a:\n    external: yes please",
			path:    "networks.a.external",
			message: "expected boolean or object, got string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateDocument(decodeYAML(t, tt.content))
			require.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.path, result.Errors[0].Path)
			assert.Equal(t, tt.message, result.Errors[0].Message)
		})
	}
}

func TestValidateDocument_ReportsEveryService(t *testing.T) {
	result := ValidateDocument(decodeYAML(t, `
services:
  b:
    networks: nope
  a:
    networks: 1
`))
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "services.a.networks", result.Errors[0].Path)
	assert.Equal(t, "services.b.networks", result.Errors[1].Path)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yml")
	require.NoError(t, os.WriteFile(good, []byte("services:\n  web:\n    image: nginx\n"), 0644))
	assert.True(t, ValidateFile(good).Valid)

	empty := filepath.Join(dir, "empty.yml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.True(t, ValidateFile(empty).Valid)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("services: [\n"), 0644))
	result := ValidateFile(bad)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[0].Message, "invalid YAML")

	missing := ValidateFile(filepath.Join(dir, "missing.yml"))
	require.False(t, missing.Valid)
	assert.Contains(t, missing.Errors[0].Message, "failed to read file")
}

func TestJSON(t *testing.T) {
	data, err := JSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "object", decoded["type"])
	assert.Contains(t, decoded["properties"], "services")
	assert.Contains(t, decoded["$defs"], "service")
}
