package domain

// Artifact is a file written to the destination tree by a transform.
type Artifact struct {
	Path     string
	Category Category
	// SourceSize is the size of the input the artifact was produced from.
	SourceSize int64
	Size       int64
}
