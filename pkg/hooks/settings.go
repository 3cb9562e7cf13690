package hooks

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// settingsFile is the YAML shape of a hook settings file: bindings
// grouped by phase, each referencing an external executable command.
type settingsFile struct {
	Hooks map[string][]settingsBinding `yaml:"hooks"`
}

type settingsBinding struct {
	ID      string   `yaml:"id"`
	Tool    string   `yaml:"tool"`
	Path    string   `yaml:"path"`
	Command []string `yaml:"command"`
	Order   int      `yaml:"order"`
}

// LoadSettings reads hook bindings from a YAML settings file. Loading
// is partial-success: invalid entries are reported in the returned
// error (a multierror, one entry per failure) while valid bindings are
// still returned. A missing file yields no bindings and no error.
func LoadSettings(path string) ([]Binding, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read hook settings %s", path)
	}

	var settings settingsFile
	if err := yaml.Unmarshal(content, &settings); err != nil {
		return nil, errors.Wrapf(err, "failed to parse hook settings %s", path)
	}

	var bindings []Binding
	var result *multierror.Error

	for phaseName, entries := range settings.Hooks {
		phase := Phase(phaseName)
		if !phase.Valid() {
			result = multierror.Append(result,
				errors.Errorf("%s: unknown hook phase %q", path, phaseName))
			continue
		}
		for _, entry := range entries {
			if entry.ID == "" {
				result = multierror.Append(result,
					errors.Errorf("%s: hook binding in phase %s missing id", path, phase))
				continue
			}
			if len(entry.Command) == 0 {
				result = multierror.Append(result,
					errors.Errorf("%s: hook %q missing command", path, entry.ID))
				continue
			}
			bindings = append(bindings, Binding{
				ID:      entry.ID,
				Phase:   phase,
				Matcher: Matcher{Tool: entry.Tool, Path: entry.Path},
				Command: entry.Command,
				Order:   entry.Order,
			})
		}
	}

	return bindings, result.ErrorOrNil()
}
