package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML metadata block expected at the top of a
// resource markdown file.
type frontmatter struct {
	Name     string   `mapstructure:"name"`
	Kind     string   `mapstructure:"kind"`
	Triggers []string `mapstructure:"triggers"`
	Globs    []string `mapstructure:"globs"`
	Priority int      `mapstructure:"priority"`
}

// DirSource loads resource descriptors from a directory of markdown
// files with YAML frontmatter. The markdown body is opaque payload; only
// the frontmatter is interpreted. Non-markdown files are ignored and a
// missing directory loads zero resources.
type DirSource struct {
	Dir string
}

// ID identifies the source in load errors
func (s DirSource) ID() string {
	return s.Dir
}

// Load parses every .md file in the directory. A malformed file is
// reported and skipped without failing the rest.
func (s DirSource) Load() ([]Descriptor, []MatchRule, []LoadError) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, []LoadError{{Source: s.Dir, Cause: err}}
	}

	var descriptors []Descriptor
	var loadErrs []LoadError

	// Stable iteration: ReadDir sorts by filename, but make it explicit.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(s.Dir, name)
		descriptor, err := loadMarkdownResource(path)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{Source: path, Cause: err})
			continue
		}
		descriptors = append(descriptors, descriptor)
	}

	return descriptors, nil, loadErrs
}

func loadMarkdownResource(path string) (Descriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, errors.Wrap(err, "failed to read resource file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return Descriptor{}, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return Descriptor{}, errors.New("missing frontmatter")
	}

	var fm frontmatter
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fm,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Descriptor{}, errors.Wrap(err, "failed to create frontmatter decoder")
	}
	if err := decoder.Decode(metaData); err != nil {
		return Descriptor{}, errors.Wrap(err, "invalid frontmatter")
	}

	if fm.Name == "" {
		return Descriptor{}, errors.New("resource name is required in frontmatter")
	}

	return Descriptor{
		ID:              fm.Name,
		Kind:            Kind(fm.Kind),
		TriggerKeywords: fm.Triggers,
		GlobPatterns:    fm.Globs,
		Priority:        fm.Priority,
		PayloadRef:      path,
	}, nil
}

// registryFile is the YAML shape of a registry source
type registryFile struct {
	Resources []registryResource `yaml:"resources"`
	Rules     []registryRule     `yaml:"rules"`
}

type registryResource struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Triggers []string `yaml:"triggers"`
	Globs    []string `yaml:"globs"`
	Priority int      `yaml:"priority"`
	Payload  string   `yaml:"payload"`
}

type registryRule struct {
	Pattern string `yaml:"pattern"`
	Kind    string `yaml:"kind"`
	Target  string `yaml:"target"`
}

// RegistrySource loads resources and match rules from a single YAML
// registry file enumerating every resource with its triggers.
type RegistrySource struct {
	Path string
}

// ID identifies the source in load errors
func (s RegistrySource) ID() string {
	return s.Path
}

// Load decodes the registry file. An unreadable or syntactically broken
// file fails the whole source; individual entries are validated later by
// the store.
func (s RegistrySource) Load() ([]Descriptor, []MatchRule, []LoadError) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, nil, []LoadError{{Source: s.Path, Cause: errors.Wrap(err, "failed to read registry")}}
	}

	var registry registryFile
	if err := yaml.Unmarshal(content, &registry); err != nil {
		return nil, nil, []LoadError{{Source: s.Path, Cause: errors.Wrap(err, "failed to parse registry")}}
	}

	descriptors := make([]Descriptor, 0, len(registry.Resources))
	for _, r := range registry.Resources {
		descriptors = append(descriptors, Descriptor{
			ID:              r.ID,
			Kind:            Kind(r.Kind),
			TriggerKeywords: r.Triggers,
			GlobPatterns:    r.Globs,
			Priority:        r.Priority,
			PayloadRef:      r.Payload,
		})
	}

	rules := make([]MatchRule, 0, len(registry.Rules))
	for _, r := range registry.Rules {
		rules = append(rules, MatchRule{
			Pattern:          r.Pattern,
			Kind:             RuleKind(r.Kind),
			TargetResourceID: r.Target,
		})
	}

	return descriptors, rules, nil
}

// StaticSource supplies literal descriptors and rules, mainly for hosts
// that assemble configuration programmatically and for tests.
type StaticSource struct {
	Name        string
	Descriptors []Descriptor
	Rules       []MatchRule
}

// ID identifies the source in load errors
func (s StaticSource) ID() string {
	if s.Name == "" {
		return "static"
	}
	return s.Name
}

// Load returns the literal entries
func (s StaticSource) Load() ([]Descriptor, []MatchRule, []LoadError) {
	return s.Descriptors, s.Rules, nil
}
