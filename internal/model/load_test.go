package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonScript = `{
  "name": "demo",
  "main_flow": "main",
  "assets": [
    {"id": "btn", "path": "images/btn.png"},
    {"id": "abs", "path": "/tmp/abs.png", "threshold": 0.7}
  ],
  "flows": [
    {"name": "main", "actions": [
      {"type": "click_image", "asset_id": "btn", "timeout_ms": 1000},
      {"type": "loop", "count": 2, "body": [{"type": "delay", "delay_ms": 50}]}
    ]}
  ]
}`

const yamlScript = `
name: demo
flows:
  - name: first
    actions:
      - type: type_text
        text: hello $user
  - name: second
    actions:
      - type: notify
        title: done
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScriptJSON(t *testing.T) {
	path := writeTemp(t, "demo.json", jsonScript)
	s, err := LoadScript(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, "main", s.MainFlow)
	require.Len(t, s.Flows, 1)
	require.Len(t, s.Flows[0].Actions, 2)
	assert.Equal(t, KindClickImage, s.Flows[0].Actions[0].Kind)
	assert.Len(t, s.Flows[0].Actions[1].Body, 1)

	// Relative asset paths resolve against the script file; absolute ones
	// stay put. Missing thresholds default.
	assert.Equal(t, filepath.Join(filepath.Dir(path), "images/btn.png"), s.Assets[0].Path)
	assert.Equal(t, 0.85, s.Assets[0].Threshold)
	assert.Equal(t, "/tmp/abs.png", s.Assets[1].Path)
	assert.Equal(t, 0.7, s.Assets[1].Threshold)
}

func TestLoadScriptYAML(t *testing.T) {
	path := writeTemp(t, "demo.yaml", yamlScript)
	s, err := LoadScript(path)
	require.NoError(t, err)

	// Main flow defaults to the first flow when unset.
	assert.Equal(t, "first", s.MainFlow)
	assert.Equal(t, "hello $user", s.Flows[0].Actions[0].Text)
}

func TestLoadScriptErrors(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeTemp(t, "bad.json", "{not json")
	_, err = LoadScript(path)
	assert.Error(t, err)
}
