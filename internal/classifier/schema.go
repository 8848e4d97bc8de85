package classifier

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// labelSchema is the minimum shape an endpoint must return: an array of
// objects each carrying a string Name. Extra fields are allowed.
const labelSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["Name"],
    "properties": {
      "Name": {"type": "string"},
      "Confidence": {"type": "number"}
    }
  }
}`

// Schema validates response bodies against the label schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// NewSchema compiles the label schema. The schema is a constant, so a
// compile failure is a programming error.
func NewSchema() *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(labelSchema))
	if err != nil {
		panic(fmt.Sprintf("classifier: compile label schema: %v", err))
	}
	return &Schema{schema: s}
}

// Validate checks body and returns an ErrMalformed-wrapped error listing
// every violation.
func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(errs, "; "))
	}
	return nil
}
