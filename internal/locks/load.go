package locks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a locks document.
type Format int

const (
	// FormatJSON is the canonical locks.json layout.
	FormatJSON Format = iota
	// FormatYAML is the equivalent YAML layout.
	FormatYAML
)

// FormatForPath picks the document format from a file extension.
// Anything that is not .yaml/.yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads the raw document bytes at path and picks the format from
// the file extension. A nonexistent file is a MISSING_INPUT_DOCUMENT
// error, distinct from a syntax error, because the two call for different
// operator action.
func ReadFile(path string) ([]byte, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		msg := "locks document not readable"
		if os.IsNotExist(err) {
			msg = "locks document not found"
		}
		return nil, FormatJSON, &LockError{
			Code:    ErrCodeDocumentMissing,
			File:    path,
			Message: msg,
			Err:     err,
		}
	}
	return data, FormatForPath(path), nil
}

// Load reads and parses the locked-parameter document at path.
func Load(path string) (*Document, error) {
	data, format, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data, format)
	if err != nil {
		var le *LockError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse decodes a locked-parameter document from raw bytes.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &LockError{
			Code:    ErrCodeDocumentSyntax,
			Message: fmt.Sprintf("cannot decode locks document: %v", err),
			Err:     err,
		}
	}
	return &doc, nil
}
