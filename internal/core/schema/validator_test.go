// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name", "count"],
  "properties": {
    "name": {"type": "string"},
    "count": {"type": "integer", "minimum": 0}
  }
}`

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument(testSchema, []byte(`{"name": "x", "count": 1}`)))
}

func TestValidateDocumentViolations(t *testing.T) {
	err := ValidateDocument(testSchema, []byte(`{"count": -1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "count")
}

func TestValidateDocumentMalformed(t *testing.T) {
	assert.Error(t, ValidateDocument(testSchema, []byte(`{broken`)))
	assert.Error(t, ValidateDocument(`{"type":`, []byte(`{}`)))
}
