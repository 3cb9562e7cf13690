package builtin

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/hookwire/hookwire/pkg/hooks"
	tooltypes "github.com/hookwire/hookwire/pkg/types/tools"
)

// secretFilePatterns match file names that are likely to hold
// credentials. Matching is substring or prefix over the lowercased
// basename.
var secretFilePatterns = []string{
	".env",
	".env.local",
	".env.development",
	".env.staging",
	".env.production",
	"secrets.",
	"credentials.",
	".secret",
	"api_key",
	"private_key",
}

// BlockSecrets blocks edits to files that look like secret stores.
// Secret files must be changed by the user directly, never through a
// mediated tool call.
func BlockSecrets(payload hooks.PreToolUsePayload) tooltypes.Verdict {
	filePath := pathArgument(payload.Arguments)
	if filePath == "" {
		return tooltypes.Allow()
	}

	base := strings.ToLower(path.Base(filepathToSlash(filePath)))
	for _, pattern := range secretFilePatterns {
		if strings.Contains(base, pattern) || strings.HasPrefix(base, pattern) {
			return tooltypes.Block(fmt.Sprintf(
				"cannot modify %q: file may contain secrets and must be edited manually", filePath))
		}
	}
	return tooltypes.Allow()
}

// dangerousCommand pairs a pattern with the reason reported on block
type dangerousCommand struct {
	pattern *regexp.Regexp
	reason  string
}

var dangerousCommands = []dangerousCommand{
	{regexp.MustCompile(`(?i)rm\s+-rf\s+/`), "recursive delete from root"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+~`), "recursive delete from home"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+\*`), "recursive delete wildcard"},
	{regexp.MustCompile(`(?i)git\s+push.*--force.*(main|master)`), "force push to protected branch"},
	{regexp.MustCompile(`(?i)git\s+push\s+-f.*(main|master)`), "force push to protected branch"},
	{regexp.MustCompile(`(?i)DROP\s+DATABASE`), "drop database"},
	{regexp.MustCompile(`(?i)DROP\s+TABLE`), "drop table"},
	{regexp.MustCompile(`(?i)TRUNCATE\s+TABLE`), "truncate table"},
	{regexp.MustCompile(`(?i)DELETE\s+FROM\s+\w+\s*;?\s*$`), "delete all rows without where clause"},
	{regexp.MustCompile(`(?i)chmod\s+-R\s+777`), "recursive chmod 777"},
	{regexp.MustCompile(`:\(\)\{ :\|:& \};:`), "fork bomb"},
	{regexp.MustCompile(`(?i)mkfs\.`), "format filesystem"},
	{regexp.MustCompile(`(?i)dd\s+if=.*of=/dev/`), "direct disk write"},
}

// BlockDangerous blocks shell commands with irreversible consequences
func BlockDangerous(payload hooks.PreToolUsePayload) tooltypes.Verdict {
	command, _ := payload.Arguments["command"].(string)
	if command == "" {
		return tooltypes.Allow()
	}

	for _, dc := range dangerousCommands {
		if dc.pattern.MatchString(command) {
			return tooltypes.Block(fmt.Sprintf("dangerous command detected: %s", dc.reason))
		}
	}
	return tooltypes.Allow()
}

func pathArgument(arguments map[string]any) string {
	for _, key := range []string{"path", "file_path", "filename"} {
		if v, ok := arguments[key].(string); ok {
			return v
		}
	}
	return ""
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
