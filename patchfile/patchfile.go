// Package patchfile loads patch sets: the versioned list of records for one
// known build of a target artifact, together with the address base and any
// named byte constants the records refer to.
package patchfile

import (
	"bytes"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/BertoldVdb/fw-patcher/fwpatch"
	"gopkg.in/yaml.v3"
)

//go:embed sets/*.yaml
var builtinSets embed.FS

const DefaultSet = "exquis-devexpr-core-v4"

var ErrorUnknownSet = errors.New("unknown patch set")

// Address accepts either a YAML integer or a string such as "0x08025632".
type Address uint64

func (a *Address) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", n.Line)
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid address %q", n.Line, n.Value)
	}
	*a = Address(v)
	return nil
}

type Patch struct {
	Address     Address `yaml:"address"`
	Expected    string  `yaml:"expected"`
	Replacement string  `yaml:"replacement"`
	Description string  `yaml:"description"`
}

type Set struct {
	Name   string  `yaml:"name"`
	Target string  `yaml:"target,omitempty"`
	Base   Address `yaml:"base"`

	// Constants maps names usable in place of a hex string in Expected or
	// Replacement.
	Constants map[string]string `yaml:"constants,omitempty"`

	// KnownInputs lists sha256 digests of input images the set was made for.
	KnownInputs []string `yaml:"known_inputs,omitempty"`

	Patches []Patch `yaml:"patches"`
}

// ParseHex decodes a hex byte string, ignoring whitespace.
func ParseHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	if clean == "" {
		return nil, errors.New("empty byte string")
	}
	return hex.DecodeString(clean)
}

func (s *Set) bytes(value string) ([]byte, error) {
	if c, ok := s.Constants[strings.TrimSpace(value)]; ok {
		value = c
	}
	return ParseHex(value)
}

func (s *Set) Translator() fwpatch.Translator {
	return fwpatch.Translator{Base: uint64(s.Base)}
}

// List resolves constants and returns the validated records in file order.
func (s *Set) List() (fwpatch.List, error) {
	list := make(fwpatch.List, 0, len(s.Patches))
	for i, p := range s.Patches {
		expected, err := s.bytes(p.Expected)
		if err != nil {
			return nil, fmt.Errorf("patch %d (0x%08X) expected: %w", i, uint64(p.Address), err)
		}
		replacement, err := s.bytes(p.Replacement)
		if err != nil {
			return nil, fmt.Errorf("patch %d (0x%08X) replacement: %w", i, uint64(p.Address), err)
		}

		list = append(list, fwpatch.Record{
			Address:     uint64(p.Address),
			Expected:    expected,
			Replacement: replacement,
			Description: p.Description,
		})
	}

	if err := list.Validate(); err != nil {
		return nil, err
	}
	return list, nil
}

// IsKnownInput reports whether digest is listed in KnownInputs. A set without
// KnownInputs knows every input.
func (s *Set) IsKnownInput(digest string) bool {
	if len(s.KnownInputs) == 0 {
		return true
	}
	for _, k := range s.KnownInputs {
		if strings.EqualFold(k, digest) {
			return true
		}
	}
	return false
}

func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Set
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode patch set: %w", err)
	}
	if len(s.Patches) == 0 {
		return nil, errors.New("patch set contains no patches")
	}
	return &s, nil
}

func Load(filename string) (*Set, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

func Builtins() []string {
	entries, _ := builtinSets.ReadDir("sets")

	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func Builtin(name string) (*Set, error) {
	data, err := builtinSets.ReadFile(path.Join("sets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrorUnknownSet, name)
	}
	return Parse(data)
}
