// SPDX-License-Identifier: Apache-2.0

package format

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestParseDataYAML(t *testing.T) {
	var s sample
	require.NoError(t, ParseData([]byte("name: widget\ncount: 3\n"), &s))
	assert.Equal(t, sample{Name: "widget", Count: 3}, s)
}

func TestParseDataJSON(t *testing.T) {
	var s sample
	require.NoError(t, ParseData([]byte(`{"name": "widget", "count": 3}`), &s))
	assert.Equal(t, sample{Name: "widget", Count: 3}, s)
}

func TestParseDataInvalid(t *testing.T) {
	var s sample
	err := ParseData([]byte("{not: valid: anything ["), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: widget\ncount: 1\n"), 0644))

	var s sample
	require.NoError(t, ParseFile(path, &s))
	assert.Equal(t, "widget", s.Name)

	assert.Error(t, ParseFile(filepath.Join(t.TempDir(), "missing.yaml"), &s))
}

func TestWriteYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	in := sample{Name: "widget", Count: 2}

	yamlPath := filepath.Join(dir, "out.yaml")
	require.NoError(t, WriteYAML(yamlPath, in))
	var fromYAML sample
	require.NoError(t, ParseFile(yamlPath, &fromYAML))
	assert.Equal(t, in, fromYAML)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, WriteJSON(jsonPath, in))
	var fromJSON sample
	require.NoError(t, ParseFile(jsonPath, &fromJSON))
	assert.Equal(t, in, fromJSON)
}

func TestAtomicWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, AtomicWriteJSON(path, sample{Name: "first", Count: 1}))
	require.NoError(t, AtomicWriteJSON(path, sample{Name: "second", Count: 2}))

	var s sample
	require.NoError(t, ParseFile(path, &s))
	assert.Equal(t, sample{Name: "second", Count: 2}, s)

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestFormatData(t *testing.T) {
	in := sample{Name: "widget", Count: 2}

	asYAML, err := FormatData(in, true)
	require.NoError(t, err)
	assert.Contains(t, asYAML, "name: widget")

	asJSON, err := FormatData(in, false)
	require.NoError(t, err)
	assert.Contains(t, asJSON, `"name": "widget"`)
}
