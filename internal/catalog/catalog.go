// Package catalog loads the immigration program rule catalog and keeps the
// current snapshot available to concurrent evaluations.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed data/programs.json
var embeddedCatalog []byte

//go:embed schema.json
var catalogSchema string

// EmbeddedSource names the catalog compiled into the binary.
const EmbeddedSource = "embedded"

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(catalogSchema))
})

// Format is a catalog serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Catalog is an immutable, ordered set of programs.
type Catalog struct {
	source      string
	metadata    map[string]any
	programs    []*Program
	byName      map[string]*Program
	diagnostics []*DataError
}

type loadOptions struct {
	source string
	strict bool
}

// LoadOption tunes Load.
type LoadOption func(*loadOptions)

// WithSource names the catalog origin in errors and logs.
func WithSource(source string) LoadOption {
	return func(o *loadOptions) { o.source = source }
}

// WithStrict rejects catalogs that have any malformed criterion block.
func WithStrict(strict bool) LoadOption {
	return func(o *loadOptions) { o.strict = strict }
}

// Load parses and validates a catalog document.
func Load(data []byte, format Format, opts ...LoadOption) (*Catalog, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	fail := func(reason string, details []string, err error) (*Catalog, error) {
		return nil, &LoadError{Source: o.source, Reason: reason, Details: details, Err: err}
	}

	doc, err := decodeDocument(data, format)
	if err != nil {
		return fail("malformed "+string(format), nil, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fail("compiling catalog schema", nil, err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fail("schema validation", nil, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fail("invalid catalog", details, nil)
	}

	root := doc.(map[string]any)
	entries := root["programs"].([]any)

	c := &Catalog{
		source:   o.source,
		programs: make([]*Program, 0, len(entries)),
		byName:   make(map[string]*Program, len(entries)),
	}
	c.metadata, _ = root["metadata"].(map[string]any)

	for i, entry := range entries {
		program := buildProgram(entry.(map[string]any))
		if _, dup := c.byName[program.Name]; dup {
			return fail("invalid catalog", []string{fmt.Sprintf("programs.%d: duplicate program_name %q", i, program.Name)}, nil)
		}

		c.programs = append(c.programs, program)
		c.byName[program.Name] = program
		c.diagnostics = append(c.diagnostics, sortedProblems(program.Rules.Problems)...)
	}

	if o.strict && len(c.diagnostics) > 0 {
		details := make([]string, 0, len(c.diagnostics))
		for _, d := range c.diagnostics {
			details = append(details, d.Error())
		}
		return fail("malformed rule data in strict mode", details, nil)
	}

	return c, nil
}

// LoadFile reads a catalog from disk; the format follows the file extension.
func LoadFile(path string, opts ...LoadOption) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "reading catalog", Err: errors.Wrapf(err, "open %s", path)}
	}
	return Load(data, FormatFromPath(path), append([]LoadOption{WithSource(path)}, opts...)...)
}

// LoadEmbedded loads the catalog compiled into the binary.
func LoadEmbedded(opts ...LoadOption) (*Catalog, error) {
	return Load(embeddedCatalog, FormatJSON, append([]LoadOption{WithSource(EmbeddedSource)}, opts...)...)
}

// Programs returns the programs in catalog order.
func (c *Catalog) Programs() []*Program {
	return slices.Clone(c.programs)
}

// Len is the number of programs.
func (c *Catalog) Len() int {
	return len(c.programs)
}

// Find looks a program up by its exact name.
func (c *Catalog) Find(name string) (*Program, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Source is where the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Version identifies the catalog snapshot from its metadata.
func (c *Catalog) Version() string {
	for _, key := range []string{"version", "last_verified", "extraction_date"} {
		if v, ok := c.metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return "unversioned"
}

// Diagnostics lists malformed criterion blocks in catalog order.
func (c *Catalog) Diagnostics() []*DataError {
	return slices.Clone(c.diagnostics)
}

// UntabulatedFunds names the programs that require settlement funds but
// tabulate no amounts. The evaluator reports them as ineligible with a rule
// data problem until the catalog supplies a table_cad.
func (c *Catalog) UntabulatedFunds() []string {
	var names []string
	for _, p := range c.programs {
		funds := p.Rules.SettlementFunds
		if funds == nil || !funds.Required || funds.Table != nil {
			continue
		}
		if p.Rules.Problem(CriterionSettlementFunds) != nil {
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

// MarshalJSON re-serializes the catalog from the original records.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.document())
}

// Encode writes the catalog in the given format.
func (c *Catalog) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c.document()); err != nil {
			return errors.Wrap(err, "encoding yaml catalog")
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return errors.Wrap(enc.Encode(c.document()), "encoding json catalog")
	default:
		return errors.Errorf("unsupported catalog format %q", format)
	}
}

func (c *Catalog) document() map[string]any {
	programs := make([]any, 0, len(c.programs))
	for _, p := range c.programs {
		programs = append(programs, p.raw)
	}

	doc := map[string]any{"programs": programs}
	if c.metadata != nil {
		doc["metadata"] = c.metadata
	}
	return doc
}

func decodeDocument(data []byte, format Format) (any, error) {
	var doc any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return stringKeys(doc), nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
		if dec.More() {
			return nil, errors.New("trailing data after catalog document")
		}
		return doc, nil
	}
}

// stringKeys rewrites YAML mappings so they look like decoded JSON.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = stringKeys(t[i])
		}
		return t
	case int:
		return float64(t)
	default:
		return v
	}
}

func buildProgram(raw map[string]any) *Program {
	p := &Program{raw: raw}
	p.Name, _ = raw["program_name"].(string)
	p.OfficialURL, _ = raw["official_url"].(string)
	p.LastUpdated, _ = raw["last_updated"].(string)

	p.Kind = KindUnknown
	if kind, ok := raw["federal_or_provincial"].(string); ok && kind != "" {
		p.Kind = Kind(kind)
	}
	if province, ok := raw["province"].(string); ok {
		p.Province = &province
	}

	rules, _ := raw["eligibility_rules"].(map[string]any)
	p.Rules = decodeRules(p.Name, rules)
	return p
}

var criterionOrder = []string{
	CriterionWorkExperience,
	CriterionLanguage,
	CriterionEducation,
	CriterionAge,
	CriterionSettlementFunds,
	CriterionJobOffer,
}

func sortedProblems(problems map[string]*DataError) []*DataError {
	if len(problems) == 0 {
		return nil
	}
	out := make([]*DataError, 0, len(problems))
	for _, criterion := range criterionOrder {
		if p, ok := problems[criterion]; ok {
			out = append(out, p)
		}
	}
	return out
}
