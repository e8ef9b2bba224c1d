package ports

// InputResolver expands glob patterns into concrete files.
type InputResolver interface {
	// ResolveInputs resolves root-relative patterns ("**" allowed) to a sorted,
	// de-duplicated list of regular files. No match is not an error.
	ResolveInputs(root string, patterns []string) ([]string, error)
}
