package locks

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/sancho5oh/alphalock/internal/precision"
)

// Entry is a single locked scalar: its value recorded as a decimal string
// plus optional units and provenance metadata.
type Entry struct {
	Value string `json:"value" yaml:"value"`
	Units string `json:"units,omitempty" yaml:"units,omitempty"`
	Note  string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Category is a named group of entries.
type Category map[string]Entry

// Metadata is the document's _metadata block.
type Metadata struct {
	Version     string `json:"version" yaml:"version"`
	Generated   string `json:"generated,omitempty" yaml:"generated,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Document is an immutable locked-parameter set. Construct one with Parse
// or Load; never mutate it during a verification run - it is the ground
// truth the run is checked against.
type Document struct {
	meta       Metadata
	categories map[string]Category
}

// Metadata returns the document's metadata block.
func (d *Document) Metadata() Metadata {
	return d.meta
}

// Categories returns the category names in sorted order.
func (d *Document) Categories() []string {
	names := make([]string, 0, len(d.categories))
	for name := range d.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Category returns the named category and whether it exists.
func (d *Document) Category(name string) (Category, bool) {
	c, ok := d.categories[canonicalKey(name)]
	return c, ok
}

// Entry looks up the entry at path (category, name). Key segments are
// NFC-normalized before comparison so that visually identical unicode
// parameter names resolve to the same entry.
func (d *Document) Entry(path ...string) (Entry, error) {
	if len(path) != 2 {
		return Entry{}, &LockError{
			Code:    ErrCodeMissingParameter,
			Path:    path,
			Message: fmt.Sprintf("key path must have 2 segments, got %d", len(path)),
		}
	}
	cat, ok := d.categories[canonicalKey(path[0])]
	if !ok {
		return Entry{}, NewMissingParameterError(path)
	}
	entry, ok := cat[canonicalKey(path[1])]
	if !ok {
		return Entry{}, NewMissingParameterError(path)
	}
	return entry, nil
}

// Value looks up the entry at path and converts its recorded decimal
// string into the arbitrary-precision representation.
func (d *Document) Value(pc *precision.Context, path ...string) (*apd.Decimal, error) {
	entry, err := d.Entry(path...)
	if err != nil {
		return nil, err
	}
	v, err := pc.Parse(entry.Value)
	if err != nil {
		return nil, &LockError{
			Code:    ErrCodeBadValue,
			Path:    path,
			Message: fmt.Sprintf("value %q is not a decimal number", entry.Value),
			Err:     err,
		}
	}
	return v, nil
}

// canonicalKey normalizes a key segment to NFC. Document keys are
// normalized the same way at parse time, so lookups are insensitive to
// unicode composition differences.
func canonicalKey(s string) string {
	return norm.NFC.String(s)
}

// newDocument builds a Document from raw categories, normalizing every key
// to NFC.
func newDocument(meta Metadata, raw map[string]Category) *Document {
	categories := make(map[string]Category, len(raw))
	for name, cat := range raw {
		normalized := make(Category, len(cat))
		for key, entry := range cat {
			normalized[canonicalKey(key)] = entry
		}
		categories[canonicalKey(name)] = normalized
	}
	return &Document{meta: meta, categories: categories}
}

// UnmarshalJSON decodes the document's JSON form: a top-level object of
// category objects plus a "_metadata" block.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var meta Metadata
	if metaRaw, ok := raw["_metadata"]; ok {
		if err := json.Unmarshal(metaRaw, &meta); err != nil {
			return fmt.Errorf("_metadata: %w", err)
		}
		delete(raw, "_metadata")
	}

	categories := make(map[string]Category, len(raw))
	for name, catRaw := range raw {
		var cat Category
		if err := json.Unmarshal(catRaw, &cat); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		categories[name] = cat
	}

	*d = *newDocument(meta, categories)
	return nil
}

// docYAML is the YAML decoding shape for a Document.
type docYAML struct {
	Metadata   Metadata            `yaml:"_metadata"`
	Categories map[string]Category `yaml:",inline"`
}

// UnmarshalYAML decodes the document's YAML form, which mirrors the JSON
// layout.
func (d *Document) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw docYAML
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*d = *newDocument(raw.Metadata, raw.Categories)
	return nil
}
