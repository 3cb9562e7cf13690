package router

// defaultAliases is the static alias table consulted during
// tokenization. Matching stays declarative: an alias maps onto the
// canonical keyword a resource is expected to register.
func defaultAliases() map[string]string {
	return map[string]string{
		"postgres": "postgresql",
		"pg":       "postgresql",
		"js":       "javascript",
		"ts":       "typescript",
		"py":       "python",
		"golang":   "go",
		"k8s":      "kubernetes",
		"tf":       "terraform",
		"md":       "markdown",
		"sec":      "security",
		"auth":     "authentication",
		"db":       "database",
		"config":   "configuration",
		"docs":     "documentation",
		"repo":     "repository",
	}
}
