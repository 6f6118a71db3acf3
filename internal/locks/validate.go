package locks

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one schema violation found in a locks document.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateBytes checks a raw locks document against the embedded CUE
// schema: required categories present, every entry carrying a decimal
// string value, a non-empty metadata version.
//
// Returns all violations found (does not fail-fast); an empty slice means
// the document is schema-valid. Decoding failures are reported as a single
// violation on the document root.
func ValidateBytes(filename string, data []byte, format Format) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; a compile failure is a programming error.
		panic(fmt.Sprintf("locks schema does not compile: %v", err))
	}

	var doc cue.Value
	switch format {
	case FormatYAML:
		file, err := cueyaml.Extract(filename, data)
		if err != nil {
			return []ValidationError{{Field: "document", Message: err.Error()}}
		}
		doc = ctx.BuildFile(file)
	default:
		expr, err := cuejson.Extract(filename, data)
		if err != nil {
			return []ValidationError{{Field: "document", Message: err.Error()}}
		}
		doc = ctx.BuildExpr(expr)
	}
	if err := doc.Err(); err != nil {
		return []ValidationError{{Field: "document", Message: err.Error()}}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// toValidationErrors flattens a CUE error list into ValidationErrors with
// field paths and source lines where available.
func toValidationErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		out = append(out, ve)
	}
	if out == nil {
		out = []ValidationError{{Field: "document", Message: err.Error()}}
	}
	return out
}
