package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Mode controls how file rules combine with a base set.
type Mode string

const (
	// ModePrepend places file rules ahead of the base set so they shadow it.
	ModePrepend Mode = "prepend"
	// ModeReplace uses the file rules alone.
	ModeReplace Mode = "replace"
)

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePrepend:
		return ModePrepend, nil
	case ModeReplace:
		return ModeReplace, nil
	}
	return "", fmt.Errorf("unknown rules mode %q (want prepend or replace)", s)
}

// File is the on-disk rule file layout.
type File struct {
	Rules []FileRule `json:"rules" yaml:"rules" jsonschema:"minItems=1"`
}

// FileRule is one entry of a rule file.
type FileRule struct {
	Domains    []string          `json:"domains" yaml:"domains" jsonschema:"minItems=1"`
	UserAgents []string          `json:"user_agents,omitempty" yaml:"user_agents,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	App        FileApp           `json:"app" yaml:"app"`
}

// FileApp is the application a file rule resolves to.
type FileApp struct {
	Name     string `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Icon     string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category string `json:"category" yaml:"category" jsonschema:"minLength=1"`
}

// ValidationError lists every schema violation found in a rule file.
type ValidationError struct {
	Path     string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rules file %s: %s", e.Path, strings.Join(e.Messages, "; "))
}

var (
	schemaOnce     sync.Once
	schemaJSON     []byte
	schemaCompiled *sjsonschema.Schema
	schemaErr      error
)

// printer renders validator messages.
var printer = message.NewPrinter(language.English)

// Schema returns the JSON Schema rule files are validated against.
func Schema() ([]byte, error) {
	if err := compileSchema(); err != nil {
		return nil, err
	}
	return schemaJSON, nil
}

func compileSchema() error {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			Anonymous:      true,
			DoNotReference: true,
			ExpandedStruct: true,
		}
		s := r.Reflect(&File{})

		schemaJSON, schemaErr = json.MarshalIndent(s, "", "  ")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("marshaling rules schema: %w", schemaErr)
			return
		}

		var doc any
		if err := json.Unmarshal(schemaJSON, &doc); err != nil {
			schemaErr = fmt.Errorf("unmarshaling rules schema: %w", err)
			return
		}

		c := sjsonschema.NewCompiler()
		if err := c.AddResource("rules.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("adding rules schema resource: %w", err)
			return
		}
		schemaCompiled, schemaErr = c.Compile("rules.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compiling rules schema: %w", schemaErr)
		}
	})
	return schemaErr
}

// LoadFile reads a YAML or JSON rule file and combines it with base.
// A nil base is treated as empty.
func LoadFile(path string, base *RuleSet, mode Mode) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	fileRules, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if mode == ModeReplace || base == nil {
		return NewRuleSet(fileRules), nil
	}
	return base.Prepend(fileRules), nil
}

// Parse validates and decodes rule file contents. The name is only used in
// error messages. JSON is a subset of YAML, so both go through the YAML
// decoder; a ".json" name additionally requires strict JSON.
func Parse(name string, data []byte) ([]Rule, error) {
	if err := compileSchema(); err != nil {
		return nil, err
	}

	var raw any
	if strings.EqualFold(filepath.Ext(name), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing rules file %s: %w", name, err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", name, err)
	}

	// Round-trip through JSON so the validator and decoder see JSON types.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing rules file %s: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("normalizing rules file %s: %w", name, err)
	}

	if err := schemaCompiled.Validate(doc); err != nil {
		return nil, &ValidationError{Path: name, Messages: validationMessages(err)}
	}

	var f File
	if err := json.Unmarshal(normalized, &f); err != nil {
		return nil, fmt.Errorf("decoding rules file %s: %w", name, err)
	}

	out := make([]Rule, 0, len(f.Rules))
	for _, fr := range f.Rules {
		icon := fr.App.Icon
		if icon == "" {
			icon = Unknown.Icon
		}
		out = append(out, Rule{
			Domains:    fr.Domains,
			UserAgents: fr.UserAgents,
			Headers:    fr.Headers,
			App:        Descriptor{Name: fr.App.Name, Icon: icon, Category: fr.App.Category},
		})
	}
	return out, nil
}

func validationMessages(err error) []string {
	var verr *sjsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}
	var msgs []string
	collect(verr, &msgs)
	slices.Sort(msgs)
	return slices.Compact(msgs)
}

func collect(err *sjsonschema.ValidationError, msgs *[]string) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		path := "/" + strings.Join(err.InstanceLocation, "/")
		*msgs = append(*msgs, path+": "+err.ErrorKind.LocalizedString(printer))
	}
	for _, cause := range err.Causes {
		collect(cause, msgs)
	}
}
