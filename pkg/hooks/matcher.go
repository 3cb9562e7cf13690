package hooks

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// Matcher restricts a binding to a subset of tool calls. Tool is a
// pipe-separated list of glob patterns over the tool name ("Edit|Write",
// "mcp__*"); Path is a glob over the call's path-like argument. Empty
// fields match everything, so the zero Matcher accepts every call.
type Matcher struct {
	Tool string
	Path string
}

type compiledMatcher struct {
	tools []glob.Glob
	path  string
}

func (m Matcher) compile() (*compiledMatcher, error) {
	compiled := &compiledMatcher{}

	if m.Tool != "" {
		for _, pattern := range strings.Split(m.Tool, "|") {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" {
				continue
			}
			g, err := glob.Compile(pattern)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid tool matcher pattern %q", pattern)
			}
			compiled.tools = append(compiled.tools, g)
		}
	}

	if m.Path != "" {
		if !doublestar.ValidatePattern(m.Path) {
			return nil, errors.Errorf("invalid path matcher pattern %q", m.Path)
		}
		compiled.path = m.Path
	}

	return compiled, nil
}

func (c *compiledMatcher) matches(call *tooltypes.ToolCall) bool {
	if len(c.tools) > 0 {
		matched := false
		for _, g := range c.tools {
			if g.Match(call.ToolName) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if c.path != "" {
		path := call.PathArgument()
		if path == "" {
			return false
		}
		if !doublestar.MatchUnvalidated(c.path, filepath.ToSlash(path)) {
			return false
		}
	}

	return true
}
