// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateDocument validates a JSON document against a JSON Schema given as a
// string. Returns an error listing every violation found.
func ValidateDocument(schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errorMsg := "document validation failed:\n"
		for _, err := range result.Errors() {
			errorMsg += fmt.Sprintf("- %s\n", err)
		}
		return fmt.Errorf("%s", errorMsg)
	}

	return nil
}
